package weapon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		want Category
	}{
		{"AK-74", Rifle},
		{"SV98", Sniper},
		{"unknown_weapon_xyz", Unknown},
		{"", Unknown},
		{"Saiga-12", Shotgun},
		{"mp5k", SMG},
		{"Glock 17", Pistol},
		{"Combat Knife", Melee},
		{"RPG-7", Heavy},
		{"M4A1", Rifle},
		// SVD is checked before the rifle keywords
		{"SVD Dragunov", Sniper},
		// "Shotgun" wins over "Pistol" by order
		{"Pistol Shotgun", Shotgun},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.name))
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	for i := 0; i < 10; i++ {
		assert.Equal(t, Rifle, Classify("ak-74"))
	}
}

func TestProfile(t *testing.T) {
	p, ok := Profile(Sniper)
	assert.True(t, ok)
	assert.Equal(t, 1.0, p.Low)
	assert.Equal(t, 1.0, p.High)
	assert.Equal(t, 300*time.Millisecond, p.Duration)

	p, ok = Profile(Pistol)
	assert.True(t, ok)
	assert.InDelta(t, 0.3, p.Low, 1e-9)
	assert.Equal(t, 60*time.Millisecond, p.Duration)

	_, ok = Profile(Unknown)
	assert.False(t, ok)
}

func TestCategoryString(t *testing.T) {
	assert.Equal(t, "rifle", Rifle.String())
	assert.Equal(t, "unknown", Category(99).String())
}
