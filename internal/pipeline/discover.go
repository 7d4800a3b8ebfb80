package pipeline

import "strings"

// DiscoverURLs splits free text on whitespace and keeps every token that
// starts with the receipt link prefix. Order is preserved; tokens are not
// deduplicated.
func DiscoverURLs(text, prefix string) []string {
	var urls []string
	for _, token := range strings.Fields(text) {
		if strings.HasPrefix(token, prefix) {
			urls = append(urls, token)
		}
	}
	return urls
}
