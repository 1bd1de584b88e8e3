package layout

import "testing"

func TestRegistryRegisterLookup(t *testing.T) {
	f := newTestFactory()
	reg := NewRegistry()
	block := stmtBlock("a")
	bl, err := NewBuilder(f, reg, nil).BuildBlockTree(block)
	if err != nil {
		t.Fatalf("BuildBlockTree: %v", err)
	}

	if got := reg.BlockLayoutFor(block); got != bl {
		t.Error("lookup did not return the built layout")
	}
	if got := reg.BlockLayoutFor(stmtBlock("other")); got != nil {
		t.Error("lookup of an unbuilt block returned a layout")
	}
	if got := reg.BlockLayoutFor(nil); got != nil {
		t.Error("nil lookup returned a layout")
	}
}

func TestRegistryUnregisterTree(t *testing.T) {
	f := newTestFactory()
	reg := NewRegistry()
	host := hostBlock("host")
	child := exprBlock("child")
	mustConnect(t, host.Inputs()[0].Connection(), child.OutputConnection())
	if _, err := NewBuilder(f, reg, nil).BuildBlockTree(host); err != nil {
		t.Fatalf("BuildBlockTree: %v", err)
	}
	if got := reg.Count(); got != 2 {
		t.Fatalf("Count = %d, want 2", got)
	}

	reg.UnregisterTree(host)

	if got := reg.Count(); got != 0 {
		t.Errorf("Count after tree unregister = %d, want 0", got)
	}
	if reg.BlockLayoutFor(child) != nil {
		t.Error("nested layout survived the tree unregister")
	}
}

func TestRegistryReset(t *testing.T) {
	f := newTestFactory()
	reg := NewRegistry()
	if _, err := NewBuilder(f, reg, nil).BuildBlockTree(stmtBlock("a")); err != nil {
		t.Fatalf("BuildBlockTree: %v", err)
	}

	reg.Reset()

	if got := reg.Count(); got != 0 {
		t.Errorf("Count after reset = %d, want 0", got)
	}
}
