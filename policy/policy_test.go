package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_IsAllowed(t *testing.T) {
	testCases := []struct {
		description string
		policy      *Policy
		action      string
		expect      bool
	}{
		{"nil policy allows all", nil, "cicd.sync-application", true},
		{"empty allow list allows all", &Policy{}, "cicd.sync-application", true},
		{"block list wins", &Policy{AllowList: []string{"cicd.sync-application"}, BlockList: []string{"cicd.sync-application"}}, "cicd.sync-application", false},
		{"allow list restricts", &Policy{AllowList: []string{"cicd.list-pipelines"}}, "cicd.sync-application", false},
		{"case insensitive", &Policy{AllowList: []string{"CICD.Sync-Application"}}, "cicd.sync-application", true},
	}
	for _, testCase := range testCases {
		assert.Equal(t, testCase.expect, testCase.policy.IsAllowed(testCase.action), testCase.description)
	}
}

func TestPolicy_RequiresApproval(t *testing.T) {
	assert.False(t, (*Policy)(nil).RequiresApproval("cicd.list-pipelines"))
	assert.False(t, (&Policy{Mode: ModeAuto}).RequiresApproval("cicd.list-pipelines"))
	assert.True(t, (&Policy{Mode: ModeAsk}).RequiresApproval("cicd.list-pipelines"))
	ask := &Policy{Mode: ModeAsk, AllowList: []string{"cicd.sync-application"}}
	assert.True(t, ask.RequiresApproval("cicd.sync-application"))
	assert.False(t, ask.RequiresApproval("cicd.list-pipelines"))
}

func TestPolicy_IsDenied(t *testing.T) {
	assert.False(t, (*Policy)(nil).IsDenied("cicd.list-pipelines"))
	assert.True(t, (&Policy{Mode: ModeDeny}).IsDenied("cicd.list-pipelines"))
	assert.True(t, (&Policy{BlockList: []string{"system.run-commands"}}).IsDenied("system.run-commands"))
	assert.False(t, (&Policy{BlockList: []string{"system.run-commands"}}).IsDenied("cicd.list-pipelines"))
}

func TestContextRoundTrip(t *testing.T) {
	p := &Policy{Mode: ModeAsk}
	ctx := WithPolicy(context.Background(), p)
	assert.Same(t, p, FromContext(ctx))
	assert.Nil(t, FromContext(context.Background()))
}

func TestConfigConversion(t *testing.T) {
	p := &Policy{Mode: ModeDeny, AllowList: []string{"a.b"}, BlockList: []string{"c.d"}}
	config := ToConfig(p)
	restored := FromConfig(config)
	assert.Equal(t, p.Mode, restored.Mode)
	assert.Equal(t, p.AllowList, restored.AllowList)
	assert.Equal(t, p.BlockList, restored.BlockList)
	assert.Nil(t, ToConfig(nil))
	assert.Nil(t, FromConfig(nil))
}
