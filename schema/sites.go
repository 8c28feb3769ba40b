package schema

import (
	"slices"
	"strings"
)

// LandingSites is the allow-list of landing sites served by the remote API.
var LandingSites = []string{
	"bwawani", "chole", "chwaka", "fumba", "jambiani",
	"jasini", "kigombe", "kizimkazi", "kukuu", "mangapwani",
	"matemwe", "mazizini", "mkinga", "mkoani", "mkokotoni",
	"mkumbuu", "moa", "msuka", "mtangani", "mvumoni_furaha",
	"ndumbani", "nungwi", "other_site", "sahare", "shumba_mjini",
	"tanga", "tongoni", "wesha", "wete",
}

// DefaultBounds is the Zanzibar map centre (longitude, latitude) used for sites without coordinates.
var DefaultBounds = [2]float64{39.1977, -6.1659}

// IsValidSite reports whether site is in the allow-list.
func IsValidSite(site string) bool {
	_, ok := slices.BinarySearch(LandingSites, site)
	return ok
}

// FilterValidSites drops sites outside the allow-list, keeping input order and removing duplicates.
func FilterValidSites(sites []string) []string {
	seen := make(map[string]struct{}, len(sites))
	out := make([]string, 0, len(sites))
	for _, s := range sites {
		if !IsValidSite(s) {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// SiteLabel turns a site id like "shumba_mjini" into "Shumba mjini".
func SiteLabel(id string) string {
	if id == "" {
		return ""
	}
	if id == AllSites {
		return "All sites"
	}
	label := strings.Replace(id, "_", " ", 1)
	return strings.ToUpper(label[:1]) + label[1:]
}

// GetSiteInfo returns display information for a landing site.
func GetSiteInfo(id string) SiteInfo {
	return SiteInfo{
		ID:     id,
		Label:  SiteLabel(id),
		Bounds: DefaultBounds,
	}
}
