package youtube

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

const (
	iframeAPIURL  = "https://www.youtube.com/iframe_api"
	embedBaseURL  = "https://www.youtube.com/embed/"
	embedParams   = "?playsinline=1&rel=0&showinfo=0&fs=1"
	playerElement = "playerId"
)

const playerScript = "function onYouTubeIframeAPIReady() {" +
	"ytplayer=new YT.Player('" + playerElement + "',{events:{onReady:onPlayerReady}});" +
	"}" +
	"function onPlayerReady(a) { a.target.playVideo(); }"

var playerScriptHash = func() string {
	sum := sha256.Sum256([]byte(playerScript))
	return "'sha256-" + base64.StdEncoding.EncodeToString(sum[:]) + "'"
}()

// EmbedURL returns the iframe source for videoID.
func EmbedURL(videoID string) string {
	return embedBaseURL + videoID + embedParams
}

// PlayerHTML returns a self-contained document that loads the IFrame API and
// starts playback once the player is ready. videoID is inserted verbatim; callers
// must only pass identifiers that cannot carry markup.
func PlayerHTML(videoID string) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head><meta charset="utf-8">`)
	b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
	b.WriteString(`</head><body style="margin:0px;padding:0px;">`)
	b.WriteString(`<script type="text/javascript" src="` + iframeAPIURL + `" async></script>`)
	b.WriteString(`<script type="text/javascript">` + playerScript + `</script>`)
	b.WriteString(`<iframe webkit-playsinline id="` + playerElement + `" type="text/html" width="100%" height="100%" src="`)
	b.WriteString(EmbedURL(videoID))
	b.WriteString(`" frameborder="0" allowfullscreen></iframe>`)
	b.WriteString(`</body></html>`)
	return b.String()
}

// PlayerScriptHash is the CSP source expression matching the inline script of
// PlayerHTML.
func PlayerScriptHash() string {
	return playerScriptHash
}
