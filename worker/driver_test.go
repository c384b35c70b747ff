package worker

import (
	"reflect"
	"testing"
)

func TestBuildArgs_PortOnly(t *testing.T) {
	got := buildArgs(Config{}, 8100)
	want := []string{"--port", "8100"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("buildArgs() = %v, want %v", got, want)
	}
}

func TestBuildArgs_WithModelAndThreads(t *testing.T) {
	got := buildArgs(Config{Model: "base.en", Threads: 4}, 8101)
	want := []string{"--port", "8101", "--model", "base.en", "--threads", "4"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("buildArgs() = %v, want %v", got, want)
	}
}

func TestBuildArgs_EmptyModelOmitted(t *testing.T) {
	got := buildArgs(Config{Model: "", Threads: 0}, 8102)
	want := []string{"--port", "8102"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("buildArgs() = %v, want %v", got, want)
	}
}

func TestBuildArgs_ExtraArgsSplitAndFiltered(t *testing.T) {
	got := buildArgs(Config{ExtraArgs: "  --flag1   --flag2 val  "}, 8103)
	want := []string{"--port", "8103", "--flag1", "--flag2", "val"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("buildArgs() = %v, want %v", got, want)
	}
}

func TestSpawn_EmptyCommandFails(t *testing.T) {
	d := NewDriver(Config{Command: ""}, NewDefaultTestLogger())
	_, err := d.Spawn(8100)
	if err == nil {
		t.Fatal("expected error for empty command")
	}
}

func TestSpawn_ReturnsStartingHandle(t *testing.T) {
	d := NewDriver(Config{Command: "sleep", ExtraArgs: "5"}, NewDefaultTestLogger())
	h, err := d.Spawn(8199)
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}
	defer d.Terminate(h, false)

	if h.State != StateStarting {
		t.Errorf("State = %v, want StateStarting", h.State)
	}
	if h.AcceptingRequests {
		t.Error("AcceptingRequests should start false")
	}
	if h.BaseURL != "http://127.0.0.1:8199" {
		t.Errorf("BaseURL = %q", h.BaseURL)
	}
	if h.ID == "" {
		t.Error("expected a generated ID")
	}
	if !h.Alive() {
		t.Error("expected freshly spawned process to be alive")
	}
}

func TestTerminate_NonGracefulKillsSynchronously(t *testing.T) {
	d := NewDriver(Config{Command: "sleep", ExtraArgs: "5"}, NewDefaultTestLogger())
	h, err := d.Spawn(8198)
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}

	d.Terminate(h, false)

	if h.State != StateStopped {
		t.Errorf("State = %v, want StateStopped", h.State)
	}
	if h.AcceptingRequests {
		t.Error("AcceptingRequests should be false after terminate")
	}
}

func TestTerminate_GracefulClearsAcceptingImmediately(t *testing.T) {
	d := NewDriver(Config{Command: "sleep", ExtraArgs: "5"}, NewDefaultTestLogger())
	h, err := d.Spawn(8197)
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}
	h.AcceptingRequests = true

	d.Terminate(h, true)

	if h.AcceptingRequests {
		t.Error("graceful terminate should clear AcceptingRequests synchronously")
	}
	if h.State != StateStopped {
		t.Errorf("State = %v, want StateStopped synchronously", h.State)
	}
}
