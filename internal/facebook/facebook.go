// Package facebook builds the web player document for Facebook-hosted videos.
package facebook

import (
	"crypto/sha256"
	"encoding/base64"
	"html"
	"regexp"
	"strings"
)

var urlPattern = regexp.MustCompile(`(?i)(https?://)?([a-z0-9-]+\.)?(facebook\.com/(.+/videos/|watch/?\?v=|video\.php\?v=).+|fb\.watch/.+)`)

const sdkURL = "https://connect.facebook.net/en_US/sdk.js#xfbml=1&version=v19.0"

const playerScript = "window.fbAsyncInit = function() {" +
	"FB.Event.subscribe('xfbml.ready', function(msg) {" +
	"if (msg.type === 'video') { msg.instance.play(); }" +
	"});" +
	"};"

var playerScriptHash = func() string {
	sum := sha256.Sum256([]byte(playerScript))
	return "'sha256-" + base64.StdEncoding.EncodeToString(sum[:]) + "'"
}()

// IsURL reports whether s links to a Facebook video.
func IsURL(s string) bool {
	return urlPattern.MatchString(s)
}

// PlayerHTML returns a document embedding videoURL with the Facebook SDK video
// plugin. Playback starts as soon as the plugin reports ready.
func PlayerHTML(videoURL string) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head><meta charset="utf-8">`)
	b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
	b.WriteString(`</head><body style="margin:0px;padding:0px;">`)
	b.WriteString(`<div id="fb-root"></div>`)
	b.WriteString(`<script type="text/javascript">` + playerScript + `</script>`)
	b.WriteString(`<script type="text/javascript" src="` + html.EscapeString(sdkURL) + `" async defer crossorigin="anonymous"></script>`)
	b.WriteString(`<div class="fb-video" data-href="`)
	b.WriteString(html.EscapeString(videoURL))
	b.WriteString(`" data-width="auto" data-allowfullscreen="true" data-autoplay="true"></div>`)
	b.WriteString(`</body></html>`)
	return b.String()
}

// PlayerScriptHash is the CSP source expression for the inline script of
// PlayerHTML.
func PlayerScriptHash() string {
	return playerScriptHash
}
