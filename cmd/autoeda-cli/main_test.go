package main

import "testing"

func TestDefaultAgentURL(t *testing.T) {
	t.Setenv("AGENT_URL", "")
	if got := defaultAgentURL(); got != "http://localhost:8080" {
		t.Errorf("fallback URL wrong: %q", got)
	}

	t.Setenv("AGENT_URL", "http://agent.lab:9090")
	if got := defaultAgentURL(); got != "http://agent.lab:9090" {
		t.Errorf("AGENT_URL not honored: %q", got)
	}
}
