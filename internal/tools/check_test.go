package tools

import (
	"context"
	"errors"
	"testing"
)

func TestCheckPresentUtility(t *testing.T) {
	// `true` exits zero and ignores --help
	if err := Check(context.Background(), "true"); err != nil {
		t.Errorf("Check(true) = %v, want nil", err)
	}
}

func TestCheckNonZeroExitIsNotMissing(t *testing.T) {
	// `false --help` launches fine but exits non-zero
	if err := Check(context.Background(), "false"); err != nil {
		t.Errorf("Check(false) = %v, want nil", err)
	}
}

func TestCheckMissingUtility(t *testing.T) {
	err := Check(context.Background(), "definitely-not-a-real-binary-9f2c")
	if err == nil {
		t.Fatal("expected error for missing binary")
	}

	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error = %T, want *NotFoundError", err)
	}
	if nf.Name != "definitely-not-a-real-binary-9f2c" {
		t.Errorf("Name = %q", nf.Name)
	}
}

func TestRequireAggregatesAllMissing(t *testing.T) {
	err := Require(context.Background(), "true", "missing-tool-one-8a1b", "missing-tool-two-8a1b")
	if err == nil {
		t.Fatal("expected error")
	}

	var me *MissingError
	if !errors.As(err, &me) {
		t.Fatalf("error = %T, want *MissingError", err)
	}
	if len(me.Missing) != 2 {
		t.Fatalf("Missing = %d entries, want 2", len(me.Missing))
	}
	if me.Missing[0].Name != "missing-tool-one-8a1b" || me.Missing[1].Name != "missing-tool-two-8a1b" {
		t.Errorf("unexpected names: %v", me.Error())
	}
}

func TestRequireAllPresent(t *testing.T) {
	if err := Require(context.Background(), "true", "false"); err != nil {
		t.Errorf("Require = %v, want nil", err)
	}
}
