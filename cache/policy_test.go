package cache

import (
	"testing"
	"time"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	if p.TTL != 30*time.Second {
		t.Errorf("TTL = %v, want 30s", p.TTL)
	}
	if p.MaxEntries != 1024 {
		t.Errorf("MaxEntries = %d, want 1024", p.MaxEntries)
	}
}

func TestLRUPolicy_AdmitEvictsOldest(t *testing.T) {
	p := NewLRUPolicy(2)
	k1 := mustKey(t, map[string]any{"x": 1})
	k2 := mustKey(t, map[string]any{"x": 2})
	k3 := mustKey(t, map[string]any{"x": 3})

	if v := p.Admit(k1); len(v) != 0 {
		t.Errorf("Admit(k1) victims = %v", v)
	}
	if v := p.Admit(k2); len(v) != 0 {
		t.Errorf("Admit(k2) victims = %v", v)
	}
	p.Touch(k1)

	victims := p.Admit(k3)
	if len(victims) != 1 || victims[0] != k2 {
		t.Errorf("Admit(k3) victims = %v, want [k2]", victims)
	}
}

func TestLRUPolicy_ForgetIsNotAVictim(t *testing.T) {
	p := NewLRUPolicy(2)
	k1 := mustKey(t, map[string]any{"x": 1})
	k2 := mustKey(t, map[string]any{"x": 2})

	p.Admit(k1)
	p.Forget(k1)
	if p.Len() != 0 {
		t.Errorf("Len() after Forget = %d, want 0", p.Len())
	}
	if v := p.Admit(k2); len(v) != 0 {
		t.Errorf("Admit after Forget victims = %v, want none", v)
	}
}

func TestLRUPolicy_MinimumSize(t *testing.T) {
	p := NewLRUPolicy(0)
	k1 := mustKey(t, map[string]any{"x": 1})
	k2 := mustKey(t, map[string]any{"x": 2})

	p.Admit(k1)
	if v := p.Admit(k2); len(v) != 1 || v[0] != k1 {
		t.Errorf("victims = %v, want [k1]", v)
	}
}
