package cbm

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystems(t *testing.T) {
	t.Parallel()

	systems := Systems()
	require.Len(t, systems, NofSystems-1)
	assert.Equal(t, Mvd, systems[0])
	assert.Equal(t, Fsd, systems[len(systems)-1])
	for _, s := range systems {
		assert.True(t, s.IsSystem(), s.String())
	}
	assert.False(t, Magnet.IsSystem())
	assert.False(t, NotExist.IsSystem())
}

func TestModuleIDNames(t *testing.T) {
	t.Parallel()

	for m := Ref; m <= Cave; m++ {
		got, err := ParseModuleID(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}

	got, err := ParseModuleID("  PSD ")
	require.NoError(t, err)
	assert.Equal(t, Psd, got)

	_, err = ParseModuleID("calorimeter")
	assert.Error(t, err)
	assert.Equal(t, "module(-1)", NotExist.String())
}

func TestModuleIDAsJSONKey(t *testing.T) {
	t.Parallel()

	in := map[ModuleID]int{Sts: 3, Psd: 5}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"sts":3,"psd":5}`, string(data))

	var out map[ModuleID]int
	require.NoError(t, json.Unmarshal(data, &out))
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	assert.Error(t, json.Unmarshal([]byte(`{"nope":1}`), &out))
}

func TestProcessString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "primary", ProcessPrimary.String())
	assert.Equal(t, "decay", ProcessDecay.String())
	assert.Equal(t, "process(99)", Process(99).String())
}

func TestLinkString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "(file 1, entry 2, index 3)", Link{File: 1, Entry: 2, Index: 3}.String())
}

func TestProcessJSON(t *testing.T) {
	var got struct {
		Process Process `json:"process"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"process": "Decay"}`), &got))
	assert.Equal(t, ProcessDecay, got.Process)

	out, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `{"process": "decay"}`, string(out))

	_, err = ParseProcess("fission")
	assert.Error(t, err)
}
