package dbtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithSearchPath(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
		want string
	}{
		{
			name: "url",
			dsn:  "postgres://u:p@localhost:5432/eq?sslmode=disable",
			want: "postgres://u:p@localhost:5432/eq?search_path=test_1&sslmode=disable",
		},
		{
			name: "url replaces existing search path",
			dsn:  "postgres://u:p@localhost/eq?search_path=public",
			want: "postgres://u:p@localhost/eq?search_path=test_1",
		},
		{
			name: "keyword value",
			dsn:  "host=localhost dbname=eq",
			want: "host=localhost dbname=eq search_path=test_1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := withSearchPath(tt.dsn, "test_1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPackageSchemaIsStableIdentifier(t *testing.T) {
	schema := packageSchema()
	assert.Equal(t, schema, packageSchema())
	assert.Regexp(t, `^test_[0-9a-f]{8}$`, schema)
}
