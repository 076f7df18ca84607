package migration

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "1.0.0", want: "1.0.0"},
		{in: "v2.3.4", want: "2.3.4"},
		{in: " 1.2.3-rc.1 ", want: "1.2.3-rc.1"},
		{in: "1.2.3+build.7", want: "1.2.3+build.7"},
		{in: "1.2", wantErr: true},
		{in: "1", wantErr: true},
		{in: "01.2.3", wantErr: true},
		{in: "latest", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := ParseVersion(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidVersion))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.String())
		})
	}
}

func TestVersionPrecedence(t *testing.T) {
	ordered := []string{"1.0.0-alpha", "1.0.0-alpha.1", "1.0.0-beta", "1.0.0-rc.1", "1.0.0", "1.0.1", "1.2.0", "1.10.0", "2.0.0"}
	for i := 1; i < len(ordered); i++ {
		a, b := MustParseVersion(ordered[i-1]), MustParseVersion(ordered[i])
		assert.True(t, a.Less(b), "%s < %s", a, b)
		assert.Equal(t, 1, b.Compare(a))
	}

	assert.True(t, MustParseVersion("1.0.0+a").Equal(MustParseVersion("1.0.0+b")))
	assert.True(t, Version{}.Less(MustParseVersion("0.0.1")))
	assert.Equal(t, "-rc.1", MustParseVersion("1.0.0-rc.1").Prerelease())
}

func TestVersionKey(t *testing.T) {
	assert.Equal(t, "1.0.0", MustParseVersion("1.0.0").Key())
	assert.Equal(t, "1.0.0", MustParseVersion("v1.0.0+build.7").Key())
	assert.Equal(t, "1.0.0-rc.1", MustParseVersion("1.0.0-rc.1+sha.abc").Key())
	assert.Equal(t, "1.0.0+a", MustParseVersion("1.0.0+a").String())
	assert.Empty(t, Version{}.Key())
}

func TestVersionText(t *testing.T) {
	type doc struct {
		V    Version   `json:"v"`
		Deps []Version `json:"deps"`
	}
	data, err := json.Marshal(doc{V: MustParseVersion("1.1.0"), Deps: []Version{MustParseVersion("1.0.0")}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":"1.1.0","deps":["1.0.0"]}`, string(data))

	var out doc
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, MustParseVersion("1.1.0"), out.V)

	err = json.Unmarshal([]byte(`{"v":"1.1"}`), &out)
	assert.True(t, errors.Is(err, ErrInvalidVersion))
}

func TestMustParseVersionPanics(t *testing.T) {
	assert.Panics(t, func() { MustParseVersion("nope") })
}
