package config

import "strconv"

// RegionRange maps a postal-code prefix window to a Federal District
// administrative region. The postal directory labels every DF code with the
// generic "Brasília" city, which is useless for matching leads by city; this
// table restores the specific region. Ranges compare the first five digits
// of a cleaned 8-digit code, both ends inclusive.
type RegionRange struct {
	Start  int
	End    int
	Region string
}

// FederalDistrictRegions is business data, not derived: changing a boundary
// is a product decision and only ever touches this table.
var FederalDistrictRegions = []RegionRange{
	{70000, 70999, "Brasília"},
	{71000, 71299, "Guará"},
	{71500, 71599, "Lago Sul"},
	{71600, 71699, "São Sebastião"},
	{71700, 71749, "Núcleo Bandeirante"},
	{71800, 71899, "Riacho Fundo"},
	{71900, 71999, "Águas Claras"},
	{72000, 72199, "Taguatinga"},
	{72200, 72299, "Ceilândia"},
	{72300, 72399, "Samambaia"},
	{72400, 72499, "Gama"},
	{72500, 72599, "Santa Maria"},
	{72600, 72699, "Recanto das Emas"},
	{72700, 72799, "Brazlândia"},
	{73000, 73099, "Sobradinho"},
	{73100, 73199, "Sobradinho II"},
	{73300, 73399, "Planaltina"},
}

// IsFederalDistrictCode reports whether a cleaned 8-digit postal code falls
// in the DF allocation (70000-000 through 73699-999).
func IsFederalDistrictCode(code string) bool {
	prefix, ok := codePrefix(code)
	if !ok {
		return false
	}
	return prefix >= 70000 && prefix <= 73699
}

// RegionForCode returns the administrative region for a cleaned 8-digit
// postal code, or false when the code is outside every configured range.
func RegionForCode(code string) (string, bool) {
	prefix, ok := codePrefix(code)
	if !ok {
		return "", false
	}
	for _, r := range FederalDistrictRegions {
		if prefix >= r.Start && prefix <= r.End {
			return r.Region, true
		}
	}
	return "", false
}

func codePrefix(code string) (int, bool) {
	if len(code) != 8 {
		return 0, false
	}
	prefix, err := strconv.Atoi(code[:5])
	if err != nil {
		return 0, false
	}
	return prefix, true
}
