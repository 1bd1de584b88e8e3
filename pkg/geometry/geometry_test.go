package geometry

import (
	"math"
	"testing"
)

func TestPointOps(t *testing.T) {
	p := Pt(3, 4)
	q := Pt(1, 2)

	if got := p.Add(q); got != Pt(4, 6) {
		t.Errorf("Add = %v, want (4.00, 6.00)", got)
	}
	if got := p.Sub(q); got != Pt(2, 2) {
		t.Errorf("Sub = %v, want (2.00, 2.00)", got)
	}
	if got := Pt(0, 0).DistanceTo(p); got != 5 {
		t.Errorf("DistanceTo = %v, want 5", got)
	}
	if got := p.Scaled(2); got != Pt(6, 8) {
		t.Errorf("Scaled = %v, want (6.00, 8.00)", got)
	}
}

func TestSizeUnion(t *testing.T) {
	tests := []struct {
		name string
		a, b Size
		want Size
	}{
		{"Disjoint", Sz(10, 2), Sz(3, 20), Sz(10, 20)},
		{"Contained", Sz(10, 10), Sz(3, 3), Sz(10, 10)},
		{"Zero", Sz(0, 0), Sz(5, 5), Sz(5, 5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Union(tt.b); got != tt.want {
				t.Errorf("Union = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRectUnion(t *testing.T) {
	tests := []struct {
		name string
		a, b Rect
		want Rect
	}{
		{
			name: "Overlapping",
			a:    NewRect(0, 0, 10, 10),
			b:    NewRect(5, 5, 10, 10),
			want: NewRect(0, 0, 15, 15),
		},
		{
			name: "Disjoint",
			a:    NewRect(0, 0, 2, 2),
			b:    NewRect(10, 10, 2, 2),
			want: NewRect(0, 0, 12, 12),
		},
		{
			name: "EmptyLeft",
			a:    Rect{},
			b:    NewRect(4, 4, 2, 2),
			want: NewRect(4, 4, 2, 2),
		},
		{
			name: "EmptyRight",
			a:    NewRect(4, 4, 2, 2),
			b:    Rect{},
			want: NewRect(4, 4, 2, 2),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Union(tt.b); got != tt.want {
				t.Errorf("Union = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRectIntersects(t *testing.T) {
	a := NewRect(0, 0, 10, 10)
	if !a.Intersects(NewRect(5, 5, 10, 10)) {
		t.Error("overlapping rects should intersect")
	}
	if a.Intersects(NewRect(10, 0, 5, 5)) {
		t.Error("edge-adjacent rects should not intersect")
	}
	if a.Intersects(NewRect(20, 20, 5, 5)) {
		t.Error("disjoint rects should not intersect")
	}
}

func TestRectContains(t *testing.T) {
	r := NewRect(1, 1, 4, 4)
	if !r.Contains(Pt(1, 1)) {
		t.Error("top-left corner should be inside")
	}
	if r.Contains(Pt(5, 5)) {
		t.Error("bottom-right corner should be outside")
	}
	if !r.Contains(Pt(3, 3)) {
		t.Error("center should be inside")
	}
}

func TestEdgeInsets(t *testing.T) {
	e := Insets(1, 2, 3, 4)

	if got := e.Horizontal(); got != 6 {
		t.Errorf("Horizontal = %v, want 6", got)
	}
	if got := e.Vertical(); got != 4 {
		t.Errorf("Vertical = %v, want 4", got)
	}
	if got := e.Left(false); got != 2 {
		t.Errorf("Left(ltr) = %v, want 2 (leading)", got)
	}
	if got := e.Left(true); got != 4 {
		t.Errorf("Left(rtl) = %v, want 4 (trailing)", got)
	}
	if got := e.Right(false); got != 4 {
		t.Errorf("Right(ltr) = %v, want 4 (trailing)", got)
	}
	if got := e.Right(true); got != 2 {
		t.Errorf("Right(rtl) = %v, want 2 (leading)", got)
	}
}

func TestScaling(t *testing.T) {
	const scale = 2.5

	r := NewRect(2, 4, 6, 8).Scaled(scale)
	want := NewRect(5, 10, 15, 20)
	if math.Abs(r.Origin.X-want.Origin.X) > 1e-9 || math.Abs(r.Size.Height-want.Size.Height) > 1e-9 {
		t.Errorf("Rect.Scaled = %v, want %v", r, want)
	}

	e := Insets(1, 1, 1, 1).Scaled(scale)
	if e.Top != 2.5 || e.Trailing != 2.5 {
		t.Errorf("EdgeInsets.Scaled = %+v, want all 2.5", e)
	}
}
