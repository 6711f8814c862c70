package server

// dashboardHTML is the self-contained page served at /. It connects to
// the websocket stream and renders live gauges without any external
// assets, so the dashboard works on air-gapped machines.
const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>hwmon</title>
<style>
  body { font-family: ui-monospace, monospace; background: #111418; color: #d8dee9; margin: 0; padding: 1.5rem; }
  h1 { font-size: 1.1rem; margin: 0 0 1rem; }
  #status { font-size: 0.8rem; color: #8a919d; margin-left: 0.75rem; }
  .grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(280px, 1fr)); gap: 1rem; }
  .card { background: #1b2026; border: 1px solid #2b323b; border-radius: 6px; padding: 1rem; }
  .card h2 { font-size: 0.85rem; margin: 0 0 0.6rem; color: #88c0d0; text-transform: uppercase; }
  .bar { background: #2b323b; border-radius: 3px; height: 10px; overflow: hidden; margin: 0.2rem 0 0.5rem; }
  .bar > div { height: 100%; background: #5e9c76; transition: width 0.3s; }
  .bar > div.hot { background: #bf616a; }
  .row { display: flex; justify-content: space-between; font-size: 0.8rem; }
  .na { color: #5a616b; }
  button { background: #2b323b; color: #d8dee9; border: 1px solid #3b434d; border-radius: 4px; padding: 0.3rem 0.8rem; cursor: pointer; font: inherit; font-size: 0.75rem; }
</style>
</head>
<body>
<h1>hwmon<span id="status">connecting&hellip;</span>
  <button onclick="fetch('/api/reset',{method:'POST'})">reset totals</button></h1>
<div class="grid" id="grid"></div>
<script>
const grid = document.getElementById('grid');
const status = document.getElementById('status');

function fmtBytes(n) {
  if (n == null) return 'n/a';
  const u = ['B','KiB','MiB','GiB','TiB'];
  let i = 0;
  while (n >= 1024 && i < u.length - 1) { n /= 1024; i++; }
  return n.toFixed(1) + ' ' + u[i];
}

function bar(pct) {
  const hot = pct >= 90 ? ' hot' : '';
  return '<div class="bar"><div class="' + hot.trim() + '" style="width:' + pct.toFixed(1) + '%"></div></div>';
}

function row(k, v) {
  return '<div class="row"><span>' + k + '</span><span>' + v + '</span></div>';
}

function card(title, body) {
  return '<div class="card"><h2>' + title + '</h2>' + body + '</div>';
}

function render(s) {
  let html = '';

  if (s.cpu) {
    let body = row('overall', s.cpu.overall_percent.toFixed(1) + '%') + bar(s.cpu.overall_percent);
    if (s.cpu.frequency_mhz != null) body += row('frequency', s.cpu.frequency_mhz.toFixed(0) + ' MHz');
    body += row('cores', s.cpu.logical_cores);
    html += card('CPU', body);
  } else {
    html += card('CPU', '<span class="na">unavailable</span>');
  }

  if (s.memory) {
    let body = row('used', fmtBytes(s.memory.used_bytes) + ' / ' + fmtBytes(s.memory.total_bytes));
    body += bar(s.memory.used_percent);
    body += row('swap', fmtBytes(s.memory.swap_used_bytes) + ' / ' + fmtBytes(s.memory.swap_total_bytes));
    html += card('Memory', body);
  } else {
    html += card('Memory', '<span class="na">unavailable</span>');
  }

  if (s.disk) {
    for (const d of s.disk) {
      let body = row(d.mountpoint, fmtBytes(d.used_bytes) + ' / ' + fmtBytes(d.total_bytes));
      body += bar(d.used_percent);
      body += row('read', fmtBytes(d.read_bytes_sec) + '/s') + row('write', fmtBytes(d.write_bytes_sec) + '/s');
      html += card('Disk ' + d.device, body);
    }
  }

  if (s.network) {
    for (const n of s.network) {
      let body = row('state', n.is_up ? 'up' : 'down');
      body += row('tx', fmtBytes(n.send_bytes_sec) + '/s &nbsp; total ' + fmtBytes(n.bytes_sent));
      body += row('rx', fmtBytes(n.recv_bytes_sec) + '/s &nbsp; total ' + fmtBytes(n.bytes_recv));
      html += card('Net ' + n.name, body);
    }
  }

  if (s.gpu) {
    for (const g of s.gpu) {
      let body = row('util', g.utilization_percent.toFixed(1) + '%') + bar(g.utilization_percent);
      body += row('memory', fmtBytes(g.memory_used_bytes) + ' / ' + fmtBytes(g.memory_total_bytes));
      if (g.temperature_c != null) body += row('temp', g.temperature_c.toFixed(0) + ' C');
      if (g.power_watts != null) body += row('power', g.power_watts.toFixed(1) + ' W');
      html += card('GPU ' + g.index + ': ' + g.name, body);
    }
  }

  grid.innerHTML = html;
}

function connect() {
  const proto = location.protocol === 'https:' ? 'wss:' : 'ws:';
  const ws = new WebSocket(proto + '//' + location.host + '/ws');
  ws.onopen = () => { status.textContent = 'live'; };
  ws.onmessage = (ev) => { render(JSON.parse(ev.data)); };
  ws.onclose = () => {
    status.textContent = 'reconnecting…';
    setTimeout(connect, 2000);
  };
}
connect();
</script>
</body>
</html>
`
