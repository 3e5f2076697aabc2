package bench

import "strconv"

// Keys returns the decimal strings "0" through "n-1".
func Keys(n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = strconv.Itoa(i)
	}

	return keys
}

// extendKeys grows keys to n entries, reusing the strings already built.
func extendKeys(keys []string, n int) []string {
	for i := len(keys); i < n; i++ {
		keys = append(keys, strconv.Itoa(i))
	}

	return keys
}
