package reload

// ClientScript is served at /livereload.js and injected into every preview
// page. It prefers WebSocket and falls back to SSE. A style reload re-fetches
// each stylesheet link with a cache-busting query; a full reload reloads the
// page.
const ClientScript = `(() => {
  if (window.__PATTERNPIPE_LR__) return;
  window.__PATTERNPIPE_LR__ = true;
  function reloadStyles() {
    document.querySelectorAll('link[rel="stylesheet"]').forEach((link) => {
      const url = new URL(link.href, location.href);
      url.searchParams.set('_lr', Date.now().toString());
      const next = link.cloneNode();
      next.href = url.toString();
      next.onload = () => link.remove();
      link.after(next);
    });
  }
  function handle(data) {
    let msg;
    try { msg = JSON.parse(data); } catch (_) { return; }
    if (msg.mode === 'style-reload') {
      console.log('[patternpipe] styles changed');
      reloadStyles();
    } else if (msg.mode === 'full-reload') {
      console.log('[patternpipe] change detected, reloading');
      location.reload();
    }
  }
  function connectSSE() {
    const es = new EventSource('/livereload');
    es.onmessage = (e) => handle(e.data);
    es.onerror = () => { es.close(); setTimeout(connectSSE, 2000); };
  }
  function connect() {
    if (!('WebSocket' in window)) { connectSSE(); return; }
    const proto = location.protocol === 'https:' ? 'wss:' : 'ws:';
    const ws = new WebSocket(proto + '//' + location.host + '/livereload/ws');
    let opened = false;
    ws.onopen = () => { opened = true; };
    ws.onmessage = (e) => handle(e.data);
    ws.onclose = () => {
      if (!opened) { connectSSE(); return; }
      setTimeout(connect, 2000);
    };
  }
  connect();
})();
`
