package domain

import (
	"fmt"
	"time"
)

// ActiveModel resolves the model the agent should use.
func (c *Config) ActiveModel() (ModelDefinition, error) {
	if c.Agent.Model == "" {
		if len(c.Models) == 0 {
			return ModelDefinition{}, fmt.Errorf("no models configured")
		}
		return c.Models[0], nil
	}
	model, ok := c.FindModelByName(c.Agent.Model)
	if !ok {
		return ModelDefinition{}, fmt.Errorf("agent model %s not found in configuration", c.Agent.Model)
	}
	return model, nil
}

// FindModelByName searches for a model by its name.
func (c *Config) FindModelByName(name string) (ModelDefinition, bool) {
	for _, model := range c.Models {
		if model.Name == name {
			return model, true
		}
	}
	return ModelDefinition{}, false
}

// HasModel checks if a model with the given name exists in the configuration.
func (c *Config) HasModel(name string) bool {
	_, exists := c.FindModelByName(name)
	return exists
}

// ConversationLimit returns the transcript cap, falling back to the default.
func (c *Config) ConversationLimit() int {
	if c.Conversation.MaxEntries <= 0 {
		return DefaultConversationLimit
	}
	return c.Conversation.MaxEntries
}

// AgentTimeout returns the per-turn deadline; zero means no deadline.
func (c *Config) AgentTimeout() time.Duration {
	if c.Agent.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Agent.TimeoutSeconds) * time.Second
}

// CatalogPollInterval parses the query status polling interval.
func (c *Config) CatalogPollInterval() time.Duration {
	if c.Catalog.PollInterval == "" {
		return DefaultPollInterval
	}
	d, err := time.ParseDuration(c.Catalog.PollInterval)
	if err != nil || d <= 0 {
		return DefaultPollInterval
	}
	return d
}

// RequiresAuthentication reports whether the login page is enforced.
func (c *Config) RequiresAuthentication() bool {
	return c.Auth.Driver != AuthDriverNone
}
