package mqtt

import "testing"

func TestTopicBuilders(t *testing.T) {
	tests := []struct {
		name     string
		builder  func() string
		expected string
	}{
		{
			name: "Current",
			builder: func() string {
				return Topics{}.Current("Cocina")
			},
			expected: "casa/Cocina/corriente",
		},
		{
			name: "Current synthetic channel",
			builder: func() string {
				return Topics{}.Current("Garage")
			},
			expected: "casa/Garage/corriente",
		},
		{
			name: "AllCurrents",
			builder: func() string {
				return Topics{}.AllCurrents()
			},
			expected: "casa/+/corriente",
		},
		{
			name: "AllTopics",
			builder: func() string {
				return Topics{}.AllTopics()
			},
			expected: "casa/#",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.builder()
			if result != tt.expected {
				t.Errorf("%s() = %q, want %q", tt.name, result, tt.expected)
			}
		})
	}
}
