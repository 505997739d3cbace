package category

import "testing"

func TestCategorize(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected Category
	}{
		{name: "empty", url: "", expected: Normal},
		{name: "plain", url: "http://www.example.com/index.html", expected: Normal},
		{name: "nordvpn any case", url: "https://NordVPN.com/pricing", expected: VPN},
		{name: "nordvpn in path", url: "http://downloads.example.org/clients/nordvpn-setup.exe", expected: VPN},
		{name: "porn before vpn", url: "http://xxx-vpn.example.com/", expected: Pornography},
		{name: "adult before vpn", url: "http://vpn.example.com/ADULT", expected: Pornography},
		{name: "accented keyword", url: "http://blog.example.cu/Revolución Cubana/hoy", expected: AntiGovernment},
		{name: "accented keyword upper case", url: "http://blog.example.cu/REVOLUCIÓN CUBANA", expected: AntiGovernment},
		{name: "disinformation", url: "http://news.example.com/fake-news/today", expected: Disinformation},
		{name: "disinformation before vpn", url: "http://hoax.example.com/openvpn", expected: Disinformation},
		{name: "pentesting", url: "https://nmap.org/download.html", expected: Pentesting},
		{name: "sqlmap mixed case", url: "https://github.com/SqlMap/sqlmap", expected: Pentesting},
		{name: "vpn before pentesting", url: "http://expressvpn.example.com/hydra", expected: VPN},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Categorize(tc.url); got != tc.expected {
				t.Errorf("Categorize(%q) = %q, expected %q", tc.url, got, tc.expected)
			}
		})
	}
}

func TestCategorizeDeterministic(t *testing.T) {
	url := "http://sex.example.com/nordvpn/nmap"
	first := Categorize(url)
	for i := 0; i < 100; i++ {
		if got := Categorize(url); got != first {
			t.Fatalf("Categorize returned %q after %q", got, first)
		}
	}
	if first != Pornography {
		t.Errorf("Expected %q, got %q", Pornography, first)
	}
}

func TestAll(t *testing.T) {
	expected := []Category{Pornography, AntiGovernment, Disinformation, VPN, Pentesting, Normal}
	all := All()
	if len(all) != len(expected) {
		t.Fatalf("Expected %d categories, got %d", len(expected), len(all))
	}
	for i := range expected {
		if all[i] != expected[i] {
			t.Errorf("Position %d: expected %q, got %q", i, expected[i], all[i])
		}
	}
}

func TestIsFailure(t *testing.T) {
	tests := []struct {
		status   int
		expected bool
	}{
		{status: 401, expected: true},
		{status: 403, expected: true},
		{status: 503, expected: true},
		{status: 200, expected: false},
		{status: 302, expected: false},
		{status: 404, expected: false},
		{status: 407, expected: false},
		{status: 500, expected: false},
		{status: 0, expected: false},
	}

	for _, tc := range tests {
		if got := IsFailure(tc.status); got != tc.expected {
			t.Errorf("IsFailure(%d) = %v, expected %v", tc.status, got, tc.expected)
		}
	}
}
