package match

// SynonymTable 食材名稱到同義詞的對照表，建立後不可修改
type SynonymTable struct {
	entries map[string][]string
}

// NewSynonymTable 以 base 為基礎合併 extra 建立對照表；兩者都會被複製
func NewSynonymTable(base map[string][]string, extra map[string][]string) *SynonymTable {
	entries := make(map[string][]string, len(base)+len(extra))
	for _, src := range []map[string][]string{base, extra} {
		for key, synonyms := range src {
			k := NormalizeName(key)
			if k == "" {
				continue
			}
			merged := append([]string(nil), entries[k]...)
			for _, s := range synonyms {
				if n := NormalizeName(s); n != "" {
					merged = append(merged, n)
				}
			}
			entries[k] = merged
		}
	}
	return &SynonymTable{entries: entries}
}

// Expand 返回正規化後的名稱及其所有同義詞，去重且原名稱在第一位
// 只查詢完全相同的鍵，不做模糊比對
func (t *SynonymTable) Expand(name string) []string {
	normalized := NormalizeName(name)
	seen := map[string]bool{normalized: true}
	variants := []string{normalized}

	if t == nil {
		return variants
	}
	for _, s := range t.entries[normalized] {
		if seen[s] {
			continue
		}
		seen[s] = true
		variants = append(variants, s)
	}
	return variants
}

// Len 對照表的鍵數量
func (t *SynonymTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

var defaultSynonyms = NewSynonymTable(defaultSynonymEntries, nil)

// DefaultSynonyms 內建的同義詞表
func DefaultSynonyms() *SynonymTable {
	return defaultSynonyms
}

var defaultSynonymEntries = map[string][]string{
	// 蔬菜與辛香料
	"scallions":     {"green onion", "spring onion", "scallion"},
	"green onions":  {"scallions", "spring onion", "scallion"},
	"spring onions": {"scallions", "green onion", "scallion"},
	"cilantro":      {"coriander", "chinese parsley", "cilantro leaves"},
	"coriander":     {"cilantro", "chinese parsley"},
	"bok choy":      {"pak choi", "chinese cabbage", "bok choi"},
	"napa cabbage":  {"chinese cabbage", "wong bok"},
	"daikon":        {"white radish", "chinese radish", "japanese radish"},
	"shiitake":      {"shiitake mushroom", "chinese mushroom"},
	"wood ear":      {"black fungus", "cloud ear mushroom"},
	"ginger":        {"fresh ginger", "ginger root"},
	"garlic":        {"garlic cloves", "fresh garlic"},
	"shallots":      {"shallot", "asian shallot"},
	"chili":         {"chile", "chili pepper", "hot pepper"},
	"bell pepper":   {"sweet pepper", "capsicum"},
	"eggplant":      {"aubergine", "chinese eggplant"},

	// 肉類與蛋白質
	"chicken breast": {"chicken", "chicken breast fillet"},
	"chicken thigh":  {"chicken thighs", "chicken leg"},
	"pork belly":     {"pork", "pork belly slices"},
	"ground pork":    {"minced pork", "pork mince"},
	"ground beef":    {"minced beef", "beef mince"},
	"beef":           {"beef steak", "beef chuck"},
	"shrimp":         {"prawns", "shrimps"},
	"prawns":         {"shrimp", "shrimps"},
	"tofu":           {"bean curd", "soybean curd"},
	"firm tofu":      {"extra firm tofu", "pressed tofu"},
	"silken tofu":    {"soft tofu", "japanese tofu"},
	"fish sauce":     {"nam pla", "nuoc mam"},

	// 醬料與調味
	"soy sauce":      {"soya sauce", "shoyu", "light soy sauce"},
	"dark soy sauce": {"thick soy sauce", "dark soya sauce"},
	"oyster sauce":   {"oyster flavored sauce"},
	"hoisin sauce":   {"chinese barbecue sauce"},
	"sesame oil":     {"sesame seed oil", "toasted sesame oil"},
	"rice vinegar":   {"rice wine vinegar", "chinese vinegar"},
	"black vinegar":  {"chinkiang vinegar", "chinese black vinegar"},
	"chili oil":      {"hot oil", "chili sesame oil"},
	"chili paste":    {"chili sauce", "hot pepper paste"},
	"bean paste":     {"doubanjiang", "fermented bean paste"},
	"miso":           {"soybean paste", "fermented soybean paste"},

	// 米、麵與澱粉
	"jasmine rice":     {"white rice", "thai jasmine rice"},
	"white rice":       {"jasmine rice", "long grain rice"},
	"short grain rice": {"sushi rice", "japanese rice"},
	"glutinous rice":   {"sticky rice", "sweet rice"},
	"rice noodles":     {"rice vermicelli", "rice stick noodles"},
	"vermicelli":       {"rice noodles", "thin rice noodles"},
	"ramen":            {"ramen noodles", "japanese noodles"},
	"udon":             {"udon noodles", "thick wheat noodles"},
	"soba":             {"soba noodles", "buckwheat noodles"},
	"egg noodles":      {"chinese egg noodles", "lo mein noodles"},
	"cornstarch":       {"corn starch", "corn flour", "cornflour", "maize starch", "starch", "potato starch"},
	"corn starch":      {"cornstarch", "corn flour", "cornflour", "maize starch", "starch", "potato starch"},
	"corn flour":       {"cornstarch", "corn starch", "cornflour", "starch"},
	"potato starch":    {"potato flour", "potato starch powder", "starch", "cornstarch", "corn starch"},
	"potato flour":     {"potato starch", "starch"},

	// 料理酒
	"rice wine":     {"shaoxing wine", "chinese cooking wine", "chinese rice wine"},
	"shaoxing wine": {"rice wine", "chinese cooking wine"},
	"mirin":         {"sweet rice wine", "japanese rice wine"},
	"sake":          {"japanese rice wine", "cooking sake"},

	// 乾貨與香料
	"star anise":         {"chinese star anise", "anise star"},
	"sichuan peppercorn": {"szechuan pepper", "chinese peppercorn"},
	"five spice":         {"chinese five spice", "five spice powder"},
	"white pepper":       {"ground white pepper", "white pepper powder"},
	"black pepper":       {"ground black pepper", "pepper"},
	"dried chili":        {"dried red chili", "dried red pepper"},
	"bay leaf":           {"bay leaves", "laurel leaf"},

	// 油脂
	"vegetable oil": {"cooking oil", "neutral oil"},
	"peanut oil":    {"groundnut oil"},
	"coconut oil":   {"coconut cooking oil"},
	"oil":           {"cooking oil", "vegetable oil"},

	// 常見食材
	"egg":               {"eggs", "chicken egg"},
	"salt":              {"table salt", "sea salt", "kosher salt"},
	"sugar":             {"white sugar", "granulated sugar", "cane sugar"},
	"brown sugar":       {"dark brown sugar", "light brown sugar"},
	"honey":             {"pure honey", "natural honey"},
	"water":             {"cold water", "tap water", "filtered water"},
	"broth":             {"stock", "bouillon"},
	"chicken broth":     {"chicken stock", "chicken bouillon"},
	"vegetable broth":   {"vegetable stock", "veg stock"},
	"flour":             {"all-purpose flour", "wheat flour", "plain flour"},
	"all-purpose flour": {"flour", "ap flour", "plain flour"},
	"starch":            {"cornstarch", "corn starch", "potato starch"},

	// 豆類
	"edamame":     {"soybean", "green soybean"},
	"black beans": {"fermented black beans", "salted black beans"},
	"red beans":   {"adzuki beans", "azuki beans"},
	"mung beans":  {"green beans", "mung bean"},
}
