package net

// CatalogHeaders 上游目录请求的标准头
// 适用方：CatalogClient 的所有查询
// 查询体是纯文本 DSL，不是 JSON
func CatalogHeaders(clientID, accessToken string) map[string]string {
	return map[string]string{
		"Client-ID":     clientID,
		"Authorization": "Bearer " + accessToken,
		"Content-Type":  "text/plain",
	}
}
