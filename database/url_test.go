package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructDatabaseURL(t *testing.T) {
	tests := []struct {
		name     string
		baseURL  string
		database string
		expected string
	}{
		{
			name:     "no database name keeps url",
			baseURL:  "postgres://u:p@localhost:5432/economy",
			expected: "postgres://u:p@localhost:5432/economy",
		},
		{
			name:     "appends database and sslmode",
			baseURL:  "postgres://u:p@localhost:5432",
			database: "economy",
			expected: "postgres://u:p@localhost:5432/economy?sslmode=disable",
		},
		{
			name:     "trailing slash",
			baseURL:  "postgres://u:p@localhost:5432/",
			database: "economy",
			expected: "postgres://u:p@localhost:5432/economy?sslmode=disable",
		},
		{
			name:     "existing query parameters",
			baseURL:  "postgres://u:p@localhost:5432?connect_timeout=5",
			database: "economy",
			expected: "postgres://u:p@localhost:5432/economy?connect_timeout=5&sslmode=disable",
		},
		{
			name:     "explicit sslmode is kept",
			baseURL:  "postgres://u:p@db:5432?sslmode=require",
			database: "economy",
			expected: "postgres://u:p@db:5432/economy?sslmode=require",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ConstructDatabaseURL(tt.baseURL, tt.database))
		})
	}
}
