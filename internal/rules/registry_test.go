package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pankaj-dahiya-devops/dp-remediate/internal/models"
)

func TestDefaultRuleRegistry_DuplicatePanics(t *testing.T) {
	reg := NewDefaultRuleRegistry()
	reg.Register(RDSPublicAccessRule{})
	assert.Panics(t, func() { reg.Register(RDSPublicAccessRule{}) })
}

func TestNewBuiltinRegistry(t *testing.T) {
	reg := NewBuiltinRegistry()
	assert.Equal(t, []string{
		"IAM_SSM_POLICY_ATTACHED",
		"RDS_PUBLICLY_ACCESSIBLE",
		"S3_BLOCK_PUBLIC_ACCESS",
	}, reg.IDs())

	r, ok := reg.Get("S3_BLOCK_PUBLIC_ACCESS")
	assert.True(t, ok)
	assert.Equal(t, "S3 Block Public Access Settings", r.Name())

	_, ok = reg.Get("EC2_LOW_CPU")
	assert.False(t, ok)
}

func TestDefaultRuleRegistry_ByKind(t *testing.T) {
	reg := NewBuiltinRegistry()

	r, ok := reg.ByKind(models.KindRDSInstance)
	assert.True(t, ok)
	assert.Equal(t, "RDS_PUBLICLY_ACCESSIBLE", r.ID())

	r, ok = reg.ByKind(models.KindIAMRolePolicy)
	assert.True(t, ok)
	assert.Equal(t, "IAM_SSM_POLICY_ATTACHED", r.ID())

	_, ok = NewDefaultRuleRegistry().ByKind(models.KindS3Bucket)
	assert.False(t, ok)
}
