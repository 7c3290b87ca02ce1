package static

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
)

const errorPageHTML = `<html>
<head><title>%[1]d %[2]s</title></head>
<body>
<center><h1>%[1]d %[2]s</h1></center>
<hr><center>relay</center>
</body>
</html>`

func writeErrorPage(w http.ResponseWriter, status int) {
	body := fmt.Sprintf(errorPageHTML, status, http.StatusText(status))

	h := w.Header()
	h.Del("ETag")
	h.Del("Cache-Control")
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("Content-Length", strconv.Itoa(len(body)))
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
