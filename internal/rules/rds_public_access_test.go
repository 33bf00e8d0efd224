package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pankaj-dahiya-devops/dp-remediate/internal/models"
)

func TestRDSPublicAccessRule_ID(t *testing.T) {
	assert.Equal(t, "RDS_PUBLICLY_ACCESSIBLE", RDSPublicAccessRule{}.ID())
}

func TestRDSPublicAccessRule_NeedsRemediation(t *testing.T) {
	cases := []struct {
		name  string
		flags map[string]bool
		want  bool
	}{
		{"public", map[string]bool{models.FlagPubliclyAccessible: true}, true},
		{"private", map[string]bool{models.FlagPubliclyAccessible: false}, false},
		{"missing flag", nil, false},
		{
			"public with pending change to private",
			map[string]bool{models.FlagPubliclyAccessible: true, models.FlagPendingPubliclyAccessible: false},
			false,
		},
		{
			"public with pending change to public",
			map[string]bool{models.FlagPubliclyAccessible: true, models.FlagPendingPubliclyAccessible: true},
			true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := RDSPublicAccessRule{}.NeedsRemediation(models.Configuration{Flags: tc.flags})
			assert.Equal(t, tc.want, got)
		})
	}
}
