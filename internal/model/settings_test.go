package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDistributionSettings_Cooldown(t *testing.T) {
	s := DistributionSettings{CooldownHours: 24}
	assert.Equal(t, 24*time.Hour, s.Cooldown())

	s.CooldownHours = 0
	assert.Equal(t, time.Duration(0), s.Cooldown())
}
