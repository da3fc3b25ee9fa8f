package capture

import "testing"

func TestIsTrackerDomain(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{"doubleclick.net", true},
		{"ad.doubleclick.net", true},
		{"pagead2.googlesyndication.com", true},
		{"GOOGLETAGMANAGER.COM", true},
		{"finviz.com", false},
		{"www.tradingview.com", false},
		{"s3.tradingview.com", false},
		{"notdoubleclick.net", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isTrackerDomain(tt.host); got != tt.want {
			t.Errorf("isTrackerDomain(%q) = %t, want %t", tt.host, got, tt.want)
		}
	}
}
