package service

import "strings"

// similarityWindow is the length of the shared run that makes two names
// "the same item".
const similarityWindow = 5

func normalizeName(s string) []rune {
	return []rune(strings.ToLower(strings.TrimSpace(s)))
}

// NamesSimilar reports whether two entry names probably denote the same
// recurring item.  After lower-casing and trimming, names are similar when
// they are equal, when one contains the other and the contained one is at
// least five characters long, or when they share any run of five
// characters.  Lengths are counted in runes.
//
//	NamesSimilar("Internet", "Internet Bill")      == true
//	NamesSimilar("Mummy Return", "Mummy Return 7/36") == true
//	NamesSimilar("Rent", "Rental")                  == false
func NamesSimilar(a, b string) bool {
	n1, n2 := normalizeName(a), normalizeName(b)
	s1, s2 := string(n1), string(n2)
	if s1 == s2 {
		return true
	}
	if len(n1) >= similarityWindow && strings.Contains(s2, s1) {
		return true
	}
	if len(n2) >= similarityWindow && strings.Contains(s1, s2) {
		return true
	}
	for i := 0; i+similarityWindow <= len(n1); i++ {
		if strings.Contains(s2, string(n1[i:i+similarityWindow])) {
			return true
		}
	}
	return false
}
