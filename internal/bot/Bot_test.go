package bot

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/matryer/is"
)

func TestNew(t *testing.T) {
	tests := []struct {
		kind     string
		wantName string
	}{
		{kind: "explorer", wantName: "Example Bot James"},
		{kind: "milestone1", wantName: "Example Bot James"},
		{kind: "Collector", wantName: "ExampleBotRobbie"},
		{kind: "milestone2", wantName: "ExampleBotRobbie"},
		{kind: "hunter", wantName: "Hunter Bot"},
		{kind: "random", wantName: "Default"},
		{kind: " default ", wantName: "Default"},
		{kind: "script:north", wantName: "Script north"},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			is := is.New(t)
			id := uuid.New()
			b, err := New(tt.kind, quietOptions(id, nil))
			is.NoErr(err)
			is.Equal(b.Name(), tt.wantName)
			is.Equal(b.ID(), id)
		})
	}
}

func TestNewKeepsGivenName(t *testing.T) {
	is := is.New(t)
	opts := quietOptions(uuid.Nil, nil)
	opts.Name = "Robbie"

	b, err := New("collector", opts)
	is.NoErr(err)
	is.Equal(b.Name(), "Robbie")
	is.True(b.ID() != uuid.Nil)
}

func TestNewUnknownKind(t *testing.T) {
	is := is.New(t)

	_, err := New("teleporter", quietOptions(uuid.New(), nil))
	is.True(errors.Is(err, ErrUnknownBot))

	_, err = New("script:does-not-exist", quietOptions(uuid.New(), nil))
	is.True(err != nil)
	is.True(!errors.Is(err, ErrUnknownBot))
}

func TestKindsAreAllBuildable(t *testing.T) {
	is := is.New(t)
	for _, kind := range Kinds() {
		_, err := New(kind, quietOptions(uuid.New(), nil))
		is.NoErr(err)
	}
}
