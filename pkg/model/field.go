package model

// FieldKind identifies one of the supported field kinds. The set is closed:
// layout creation and field measurement dispatch on it.
type FieldKind int

const (
	// FieldLabel is a static, non-editable text label.
	FieldLabel FieldKind = iota
	// FieldTextInput is an editable single-line text value.
	FieldTextInput
	// FieldCheckbox is a boolean toggle.
	FieldCheckbox
)

// String returns the kind's name for logs and serialized documents.
func (k FieldKind) String() string {
	switch k {
	case FieldLabel:
		return "label"
	case FieldTextInput:
		return "text_input"
	case FieldCheckbox:
		return "checkbox"
	}
	return "unknown"
}

// FieldListener observes value changes on a field. The field's layout node
// registers itself here so an edit reflows the tree.
type FieldListener interface {
	FieldValueChanged(f *Field)
}

// Field is a single atom of block content: a label, an editable text value,
// or a checkbox. Fields live inside an input and carry no geometry of their
// own; extents come from the measurer capability in the layout layer.
//
// Create fields with [NewLabelField], [NewTextInputField], or
// [NewCheckboxField]; the zero value is not usable.
type Field struct {
	kind    FieldKind
	name    string
	text    string
	checked bool

	sourceInput *Input
	listener    FieldListener
}

// NewLabelField creates a static label field.
func NewLabelField(name, text string) *Field {
	return &Field{kind: FieldLabel, name: name, text: text}
}

// NewTextInputField creates an editable text field with an initial value.
func NewTextInputField(name, text string) *Field {
	return &Field{kind: FieldTextInput, name: name, text: text}
}

// NewCheckboxField creates a checkbox field with an initial state.
func NewCheckboxField(name string, checked bool) *Field {
	return &Field{kind: FieldCheckbox, name: name, checked: checked}
}

// Kind returns the field's kind.
func (f *Field) Kind() FieldKind { return f.kind }

// Name returns the field's name within its input.
func (f *Field) Name() string { return f.name }

// Text returns the field's text content. For checkboxes this is "true" or
// "false".
func (f *Field) Text() string {
	if f.kind == FieldCheckbox {
		if f.checked {
			return "true"
		}
		return "false"
	}
	return f.text
}

// Checked returns the checkbox state. Always false for non-checkbox fields.
func (f *Field) Checked() bool { return f.checked }

// SourceInput returns the input this field belongs to, or nil before the
// field is added to one.
func (f *Field) SourceInput() *Input { return f.sourceInput }

// SetListener installs the single value listener; nil removes it.
func (f *Field) SetListener(l FieldListener) { f.listener = l }

// SetText updates the text content and notifies the listener. Setting the
// current value is a no-op. Checkbox fields ignore SetText.
func (f *Field) SetText(text string) {
	if f.kind == FieldCheckbox || f.text == text {
		return
	}
	f.text = text
	f.notify()
}

// SetChecked updates the checkbox state and notifies the listener. A no-op
// for non-checkbox fields and when the state is unchanged.
func (f *Field) SetChecked(checked bool) {
	if f.kind != FieldCheckbox || f.checked == checked {
		return
	}
	f.checked = checked
	f.notify()
}

func (f *Field) notify() {
	if f.listener != nil {
		f.listener.FieldValueChanged(f)
	}
}
