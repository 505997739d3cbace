// Package category assigns suspicious-content labels to request URLs.
package category

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category is the label written to the reports.
type Category string

const (
	Pornography    Category = "pornografía"
	AntiGovernment Category = "antigubernamental"
	Disinformation Category = "desinformación"
	VPN            Category = "vpn"
	Pentesting     Category = "pentesting"
	Normal         Category = "normal"
)

// Rule pairs a category with the keywords that select it.
type Rule struct {
	Category Category
	Keywords []string
}

// Rules is evaluated top to bottom; the first rule with a matching keyword wins.
var Rules = []Rule{
	{Category: Pornography, Keywords: []string{"porn", "xxx", "sex", "adult"}},
	{Category: AntiGovernment, Keywords: []string{"gusano", "anticomunista", "revolución cubana", "anticastro", "anticastrista"}},
	{Category: Disinformation, Keywords: []string{"fake-news", "conspiracy", "hoax", "desinformacion"}},
	{Category: VPN, Keywords: []string{"vpn", "openvpn", "nordvpn", "expressvpn"}},
	{Category: Pentesting, Keywords: []string{"nmap", "metasploit", "sqlmap", "hydra"}},
}

// All returns every category in rule order, followed by Normal.
func All() []Category {
	all := make([]Category, 0, len(Rules)+1)
	for _, rule := range Rules {
		all = append(all, rule.Category)
	}
	return append(all, Normal)
}

// Categorize returns the category of the first rule with a keyword contained
// in url, ignoring case. URLs that match nothing are Normal.
func Categorize(url string) Category {
	// A Caser keeps state between calls, so each call gets its own.
	lower := cases.Lower(language.Und)
	target := lower.String(url)

	for _, rule := range Rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(target, lower.String(keyword)) {
				return rule.Category
			}
		}
	}
	return Normal
}

// IsFailure reports whether status denotes a denied or unavailable request.
func IsFailure(status int) bool {
	switch status {
	case 401, 403, 503:
		return true
	}
	return false
}
