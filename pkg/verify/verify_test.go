package verify

import (
	"fmt"
	"testing"
)

func TestAllPropertiesHold(t *testing.T) {
	table, err := Run(Config{NumWorkers: 4, Logger: quiet})
	if err != nil {
		t.Fatal(err)
	}
	if table.Len() != len(Properties()) {
		t.Fatalf("got %d outcomes, want %d", table.Len(), len(Properties()))
	}
	for _, o := range table.Outcomes() {
		if !o.Passed() {
			t.Errorf("%s: %d/%d failures, first: %s", o.Property, o.Failures, o.Cases, o.Example)
		}
	}
}

func TestOnlySelectsProperties(t *testing.T) {
	table, err := Run(Config{NumWorkers: 2, Only: []string{"parity", "daa-bcd"}, Logger: quiet})
	if err != nil {
		t.Fatal(err)
	}
	got := table.Outcomes()
	if len(got) != 2 || got[0].Property != "daa-bcd" || got[1].Property != "parity" {
		t.Errorf("outcomes %+v", got)
	}
	if got[0].Cases != 20000 {
		t.Errorf("daa-bcd cases %d", got[0].Cases)
	}
	if _, err := Run(Config{Only: []string{"nope"}, Logger: quiet}); err == nil {
		t.Error("expected error for unknown property")
	}
}

func TestPoolRecordsFirstFailure(t *testing.T) {
	odd := &Property{
		Name:  "even",
		Cases: 3 * ChunkSize,
		Check: func(i int64) (string, bool) {
			if i%1000 == 999 {
				return fmt.Sprintf("i=%d", i), false
			}
			return pass, true
		},
	}
	var tasks []Task
	for from := int64(0); from < odd.Cases; from += ChunkSize {
		tasks = append(tasks, Task{Prop: odd, From: from, To: from + ChunkSize})
	}
	pool := NewWorkerPool(3, quiet)
	tallies := pool.RunTasks(tasks)

	checked, failed := pool.Stats()
	if checked != odd.Cases {
		t.Errorf("checked %d want %d", checked, odd.Cases)
	}
	// 999, 1999, ..., 11999 within 12288 cases
	if failed != 12 || tallies["even"].failures.Load() != 12 {
		t.Errorf("failed %d want 12", failed)
	}
	if ex := tallies["even"].example; ex != "i=999" {
		t.Errorf("first failure %q want i=999", ex)
	}
}

func TestPropertyNamesUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, p := range Properties() {
		if seen[p.Name] {
			t.Errorf("duplicate property %s", p.Name)
		}
		seen[p.Name] = true
		if p.Cases <= 0 || p.Check == nil {
			t.Errorf("%s: malformed", p.Name)
		}
	}
}

func TestQuickCheck(t *testing.T) {
	tests := []struct {
		name              string
		target, candidate []uint8
		want              bool
	}{
		// AND 0FFh and AND A leave A unchanged with identical flags.
		{"AND 0FFh = AND A", []uint8{0xE6, 0xFF}, []uint8{0xA7}, true},
		{"OR 00h = OR A", []uint8{0xF6, 0x00}, []uint8{0xB7}, true},
		// XOR A also rewrites F, LD A,0 does not.
		{"LD A,0 != XOR A", []uint8{0x3E, 0x00}, []uint8{0xAF}, false},
		{"INC A != ADD A,1", []uint8{0x3C}, []uint8{0xC6, 0x01}, false},
		{"DD 47 = LD B,A", []uint8{0xDD, 0x47}, []uint8{0x47}, true},
		{"DD 7C != LD A,H", []uint8{0xDD, 0x7C}, []uint8{0x7C}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := quickCheck(tt.target, tt.candidate); got != tt.want {
				t.Errorf("quickCheck = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPrefixFallbackOps(t *testing.T) {
	ops := prefixFallbackOps()
	has := map[uint8]bool{}
	for _, op := range ops {
		has[op] = true
	}
	for _, op := range []uint8{0x00, 0x47, 0x80, 0x3C, 0x27} {
		if !has[op] {
			t.Errorf("%02X should be a fallback opcode", op)
		}
	}
	for _, op := range []uint8{0x09, 0x24, 0x66, 0x7C, 0x84, 0x76, 0x06} {
		if has[op] {
			t.Errorf("%02X must not be a fallback opcode", op)
		}
	}
}
