package gallery

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/sendrec/galleryplayer/internal/media"
)

type galleryPageData struct {
	Title      string
	Autoplay   bool
	Items      []sharedItem
	ShareToken string
	Nonce      string
}

type passwordPageData struct {
	Nonce     string
	ShareURL  string
	WrongPass bool
}

type messagePageData struct {
	Nonce string
}

func (i sharedItem) IsVideo() bool {
	return i.Kind == media.KindVideo
}

const pageStyle = `
        * { margin: 0; padding: 0; box-sizing: border-box; }
        html, body { width: 100%; height: 100%; background: #000; color: #e2e8f0;
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; }`

var galleryPageTemplate = template.Must(template.New("gallery").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>{{.Title}}</title>
    <style nonce="{{.Nonce}}">` + pageStyle + `
        body { overflow: hidden; }
        .pager { display: flex; width: 100%; height: 100%; transition: transform 0.3s ease; }
        .slide { flex: 0 0 100%; height: 100%; display: flex; flex-direction: column; }
        .media { flex: 1; min-height: 0; display: flex; align-items: center; justify-content: center; }
        .media img, .media video { max-width: 100%; max-height: 100%; object-fit: contain; }
        .media iframe { width: 100%; height: 100%; border: 0; }
        .caption { padding: 8px 12px; font-size: 13px; background: #111; min-height: 2em; }
        .nav { position: fixed; top: 50%; background: rgba(0,0,0,0.4); color: #fff; border: 0;
            font-size: 28px; padding: 8px 14px; cursor: pointer; }
        .nav.prev { left: 8px; }
        .nav.next { right: 8px; }
        .counter { position: fixed; top: 8px; right: 12px; font-size: 12px; color: #94a3b8; }
        .empty { display: flex; height: 100%; align-items: center; justify-content: center; }
    </style>
</head>
<body>
{{if .Items}}
    <div class="pager" id="pager">
    {{range .Items}}
        <div class="slide" data-item-id="{{.ID}}">
            <div class="media">
            {{if .PlayerURL}}
                <iframe data-src="{{.PlayerURL}}" allow="autoplay; fullscreen; encrypted-media" allowfullscreen></iframe>
            {{else if .IsVideo}}
                <video controls playsinline webkit-playsinline preload="metadata" src="{{.MediaURL}}"></video>
            {{else}}
                <img src="{{.MediaURL}}" alt="{{.Caption}}">
            {{end}}
            </div>
            <div class="caption">{{.Caption}}</div>
        </div>
    {{end}}
    </div>
    <button class="nav prev" id="prev" aria-label="Previous">&#8249;</button>
    <button class="nav next" id="next" aria-label="Next">&#8250;</button>
    <div class="counter" id="counter"></div>
{{else}}
    <div class="empty">This gallery is empty.</div>
{{end}}
    <script nonce="{{.Nonce}}">
        (function() {
            var shareToken = {{.ShareToken}};
            var autoplay = {{.Autoplay}};
            var pager = document.getElementById('pager');
            if (!pager) { return; }
            var slides = pager.querySelectorAll('.slide');
            var counter = document.getElementById('counter');
            var current = -1;
            var seen = {};

            function leave(slide) {
                var v = slide.querySelector('video');
                if (v) { v.pause(); }
                var f = slide.querySelector('iframe');
                if (f) { f.removeAttribute('src'); }
            }

            function enter(slide) {
                var f = slide.querySelector('iframe');
                if (f) { f.src = f.getAttribute('data-src'); }
                var v = slide.querySelector('video');
                if (v && autoplay) { v.play().catch(function() {}); }
                var id = slide.getAttribute('data-item-id');
                if (!seen[id]) {
                    seen[id] = true;
                    fetch('/api/g/' + shareToken + '/items/' + id + '/views', { method: 'POST' }).catch(function() {});
                }
            }

            function show(i) {
                if (i < 0 || i >= slides.length || i === current) { return; }
                if (current >= 0) { leave(slides[current]); }
                current = i;
                pager.style.transform = 'translateX(' + (-100 * i) + '%)';
                counter.textContent = (i + 1) + ' / ' + slides.length;
                enter(slides[i]);
            }

            document.getElementById('prev').addEventListener('click', function() { show(current - 1); });
            document.getElementById('next').addEventListener('click', function() { show(current + 1); });
            document.addEventListener('keydown', function(e) {
                if (e.key === 'ArrowLeft') { show(current - 1); }
                if (e.key === 'ArrowRight') { show(current + 1); }
            });

            var startX = null;
            pager.addEventListener('touchstart', function(e) { startX = e.touches[0].clientX; }, { passive: true });
            pager.addEventListener('touchend', function(e) {
                if (startX === null) { return; }
                var dx = e.changedTouches[0].clientX - startX;
                startX = null;
                if (Math.abs(dx) > 50) { show(dx < 0 ? current + 1 : current - 1); }
            });

            show(0);
        })();
    </script>
</body>
</html>`))

var passwordPageTemplate = template.Must(template.New("gallery-password").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>Password required</title>
    <style nonce="{{.Nonce}}">` + pageStyle + `
        body { display: flex; align-items: center; justify-content: center; background: #0f172a; }
        .container { text-align: center; padding: 2rem; max-width: 360px; width: 100%; }
        h1 { font-size: 1.25rem; margin-bottom: 0.5rem; }
        p { color: #94a3b8; margin-bottom: 1rem; font-size: 0.875rem; }
        .error { color: #ef4444; }
        input { width: 100%; padding: 0.625rem; border-radius: 6px; border: 1px solid #334155;
            background: #1e293b; color: #fff; margin-bottom: 0.75rem; }
        button { width: 100%; background: #22c55e; color: #fff; padding: 0.625rem; border: 0;
            border-radius: 6px; font-weight: 600; cursor: pointer; }
    </style>
</head>
<body>
    <div class="container">
        <h1>This gallery is password protected</h1>
        {{if .WrongPass}}<p class="error">Incorrect password</p>{{else}}<p>Enter the password to view this gallery.</p>{{end}}
        <form method="post" action="{{.ShareURL}}">
            <input type="password" name="password" placeholder="Password" required autofocus>
            <button type="submit">View Gallery</button>
        </form>
    </div>
</body>
</html>`))

var notFoundPageTemplate = template.Must(template.New("gallery-not-found").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>Gallery not found</title>
    <style nonce="{{.Nonce}}">` + pageStyle + `
        body { display: flex; align-items: center; justify-content: center; background: #0f172a; }
    </style>
</head>
<body>
    <h1>Gallery not found</h1>
</body>
</html>`))

func (h *Handler) renderPage(w http.ResponseWriter, status int, tmpl *template.Template, data any) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		slog.Error("gallery: failed to render page", "template", tmpl.Name(), "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
