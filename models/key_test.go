package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey_UnmarshalJSON(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		payload string
		want    Key
	}{
		{
			name:    "userKey",
			payload: `{"userKey":"k1","name":"My API","createAt":"2024-03-01T10:00:00Z","allowedOrigins":["a.com"]}`,
			want:    Key{KeyID: "k1", Name: "My API", CreatedAt: created, AllowedOrigins: []string{"a.com"}},
		},
		{
			name:    "keyId",
			payload: `{"keyId":"k1","name":"My API","createdAt":"2024-03-01T10:00:00Z"}`,
			want:    Key{KeyID: "k1", Name: "My API", CreatedAt: created},
		},
		{
			name:    "userKey wins",
			payload: `{"userKey":"k1","keyId":"k2","name":"x"}`,
			want:    Key{KeyID: "k1", Name: "x"},
		},
		{
			name:    "unparsable creation time",
			payload: `{"keyId":"k1","name":"My API","createAt":"..."}`,
			want:    Key{KeyID: "k1", Name: "My API"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var key Key
			require.NoError(t, json.Unmarshal([]byte(tc.payload), &key))
			assert.Equal(t, tc.want.KeyID, key.KeyID)
			assert.Equal(t, tc.want.Name, key.Name)
			assert.True(t, tc.want.CreatedAt.Equal(key.CreatedAt))
			assert.Equal(t, tc.want.AllowedOrigins, key.AllowedOrigins)
		})
	}
}

func TestKey_JSONRoundTripKeepsCreationTime(t *testing.T) {
	key := Key{KeyID: "k1", Name: "one", CreatedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}

	raw, err := json.Marshal(key)
	require.NoError(t, err)

	var decoded Key
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.True(t, key.Equal(decoded))
	assert.True(t, key.CreatedAt.Equal(decoded.CreatedAt))
}
