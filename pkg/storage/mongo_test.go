package storage

import (
	"os"
	"testing"

	"houseofstone-client/pkg/config"

	"github.com/stretchr/testify/require"
)

// Runs against a real server only when MONGO_URI is set.
func TestMongoStore(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	s, err := NewMongoStore(config.MongoConfig{URI: uri, DBName: "houseofstone_test", Collection: "kv_store_test"})
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)
}
