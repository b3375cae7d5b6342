package validator

import (
	"testing"

	"github.com/amp-labs/amp-hsm/statechart"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codes[T ValidationError | ValidationWarning](issues []T) []string {
	out := make([]string, 0, len(issues))

	for _, issue := range issues {
		switch v := any(issue).(type) {
		case ValidationError:
			out = append(out, v.Code)
		case ValidationWarning:
			out = append(out, v.Code)
		}
	}

	return out
}

func TestValidateFile(t *testing.T) {
	t.Parallel()

	result, err := ValidateFile("testdata/messy.yaml")
	require.NoError(t, err)

	assert.True(t, result.Valid)
	assert.False(t, result.HasErrors())
	assert.True(t, result.HasWarnings())
	assert.Equal(t, []string{
		"UNREACHABLE_STATE",
		"UNREACHABLE_STATE",
		"COMPOSITE_WITHOUT_DEFAULT",
		"DUPLICATE_TRANSITION",
		"INDEX_PRESSURE",
		"UNUSED_EVENT",
		"UNUSED_EVENT",
		"TIMEOUT_WITHOUT_PERIOD",
		"PERIOD_WITHOUT_TIMEOUT",
	}, codes(result.Warnings))

	assert.Equal(t, "group", result.Warnings[0].Location.State)
	assert.Equal(t, "inner", result.Warnings[1].Location.State)
	assert.Equal(t, 3, result.Warnings[3].Location.Transition)
	assert.Contains(t, result.Warnings[5].Message, "'zeta2'")
	assert.Contains(t, result.Warnings[6].Message, "'zeta10'")
	assert.Equal(t, "busy", result.Warnings[7].Location.State)
	assert.Equal(t, "idle", result.Warnings[8].Location.State)

	for _, w := range result.Warnings {
		assert.Equal(t, "testdata/messy.yaml", w.Location.File)
	}

	assert.Contains(t, result.String(), "✓ Configuration is valid")
	assert.Contains(t, result.String(), "9 warning(s)")
}

func TestValidateFileStrict(t *testing.T) {
	t.Parallel()

	result, err := ValidateFileStrict("testdata/messy.yaml")
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.Len(t, result.Errors, 9)
	assert.Empty(t, result.Warnings)
	assert.Contains(t, result.String(), "✗ Configuration has 9 error(s)")
	assert.Contains(t, result.String(), "Fix: Remove unreachable state 'group'")
}

func TestValidateFileMissing(t *testing.T) {
	t.Parallel()

	result, err := ValidateFile("testdata/missing.yaml")
	require.Error(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, []string{"CONFIG_LOAD_FAILED"}, codes(result.Errors))
}

func TestDefaultNotChild(t *testing.T) {
	t.Parallel()

	config, err := statechart.LoadConfigFromBytes([]byte(`
name: skip
initial: root
events: [go]
states:
  - {name: root, default: inner}
  - {name: group, parent: root, default: inner}
  - {name: inner, parent: group}
transitions:
  - {from: inner, event: go, to: group}
`))
	require.NoError(t, err)

	result := Validate(config)
	assert.False(t, result.Valid)
	assert.Equal(t, []string{"DEFAULT_NOT_CHILD"}, codes(result.Errors))
	assert.Equal(t, "root", result.Errors[0].Location.State)
}

func TestValidateCompileFailure(t *testing.T) {
	t.Parallel()

	config := &statechart.Config{
		Name:    "cycle",
		Initial: "a",
		Events:  []string{"go"},
		States: []statechart.StateConfig{
			{Name: "root"},
			{Name: "a", Parent: "b"},
			{Name: "b", Parent: "a"},
		},
	}

	result := Validate(config)
	assert.False(t, result.Valid)
	assert.Equal(t, []string{"CONFIG_INVALID"}, codes(result.Errors))
	assert.Contains(t, result.Errors[0].Message, "cycle detected")

	result = Validate(nil)
	assert.Equal(t, []string{"CONFIG_NIL"}, codes(result.Errors))
}

func TestFixes(t *testing.T) {
	t.Parallel()

	config, err := statechart.LoadConfig("testdata/messy.yaml")
	require.NoError(t, err)

	err = RemoveUnreachableState("group").Apply(config)
	require.ErrorIs(t, err, ErrStateInUse)

	require.NoError(t, ApplyFixes(config, []*Fix{
		RemoveUnreachableState("inner"),
		RemoveUnreachableState("group"),
		RemoveShadowedTransition("idle", "start"),
		nil,
	}))

	assert.Len(t, config.States, 3)
	assert.Len(t, config.Transitions, 3)

	err = ApplyFixes(config, []*Fix{
		RemoveShadowedTransition("idle", "start"),
		RemoveUnreachableState("nowhere"),
	})
	require.ErrorIs(t, err, ErrDuplicateNotFound)
	require.ErrorIs(t, err, ErrStateNotFound)

	result := Validate(config)
	assert.True(t, result.Valid)
	assert.NotContains(t, codes(result.Warnings), "UNREACHABLE_STATE")
	assert.NotContains(t, codes(result.Warnings), "DUPLICATE_TRANSITION")
}

func TestSetDefaultSubstateFix(t *testing.T) {
	t.Parallel()

	config, err := statechart.LoadConfig("testdata/messy.yaml")
	require.NoError(t, err)

	result := Validate(config)

	var fix *Fix

	for _, w := range result.Warnings {
		if w.Code == "COMPOSITE_WITHOUT_DEFAULT" {
			fix = w.Fix
		}
	}

	require.NotNil(t, fix)
	require.NoError(t, fix.Apply(config))
	require.ErrorIs(t, fix.Apply(config), ErrDefaultAlreadySet)
	require.ErrorIs(t, SetDefaultSubstate("nowhere", "x").Apply(config), ErrStateNotFound)
	assert.NotEmpty(t, result.Fixes())
}

func TestAutoFix(t *testing.T) {
	t.Parallel()

	config, err := statechart.LoadConfig("testdata/messy.yaml")
	require.NoError(t, err)

	applied, result := AutoFix(config)

	assert.Equal(t, []string{
		"Remove unreachable state 'inner'",
		"Remove unreachable state 'group'",
		"Remove shadowed transition on 'start' from 'idle'",
	}, applied)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Fixes())
	assert.Len(t, config.States, 3)
	assert.Len(t, config.Transitions, 3)
}
