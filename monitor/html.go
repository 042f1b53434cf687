package monitor

// indexHTML is the self-contained monitoring panel. It polls /api/stats and
// upgrades to the /ws live feed when available.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>JumpTiger Monitor</title>
<style>
  body { font-family: Arial, sans-serif; margin: 0; padding: 20px; background: #f5f5f5; color: #333; }
  .container { max-width: 1100px; margin: 0 auto; }
  .header { display: flex; justify-content: space-between; align-items: center; margin-bottom: 20px; }
  .card { background: #fff; border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,.1); padding: 20px; margin-bottom: 20px; }
  .grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(180px, 1fr)); gap: 12px; }
  .stat .value { font-size: 1.6em; font-weight: bold; }
  .stat .label { color: #888; font-size: .85em; }
  table { width: 100%; border-collapse: collapse; }
  th, td { text-align: left; padding: 6px 8px; border-bottom: 1px solid #eee; font-size: .9em; }
  button { padding: 6px 14px; border: none; border-radius: 4px; background: #c0392b; color: #fff; cursor: pointer; }
</style>
</head>
<body>
<div class="container">
  <div class="header">
    <h1>JumpTiger Monitor</h1>
    <button onclick="resetStats()">Reset</button>
  </div>
  <div class="card">
    <div class="grid">
      <div class="stat"><div class="value" id="total_connections">0</div><div class="label">total connections</div></div>
      <div class="stat"><div class="value" id="active_connections">0</div><div class="label">active connections</div></div>
      <div class="stat"><div class="value" id="total_bytes_in">0</div><div class="label">bytes in</div></div>
      <div class="stat"><div class="value" id="total_bytes_out">0</div><div class="label">bytes out</div></div>
      <div class="stat"><div class="value" id="uptime">0s</div><div class="label">uptime</div></div>
    </div>
  </div>
  <div class="card">
    <table>
      <thead><tr><th>id</th><th>client</th><th>target</th><th>state</th><th>in</th><th>out</th></tr></thead>
      <tbody id="connections"></tbody>
    </table>
  </div>
</div>
<script>
function fmtBytes(n) {
  if (n > 1048576) return (n / 1048576).toFixed(1) + ' MB';
  if (n > 1024) return (n / 1024).toFixed(1) + ' KB';
  return n + ' B';
}

function render(s) {
  document.getElementById('total_connections').textContent = s.total_connections;
  document.getElementById('active_connections').textContent = s.active_connections;
  document.getElementById('total_bytes_in').textContent = fmtBytes(s.total_bytes_in);
  document.getElementById('total_bytes_out').textContent = fmtBytes(s.total_bytes_out);
  document.getElementById('uptime').textContent = s.uptime + 's';

  var rows = '';
  (s.connections || []).forEach(function (c) {
    rows += '<tr><td>' + c.id + '</td><td>' + c.client_addr + '</td><td>' + c.target +
      '</td><td>' + c.state + '</td><td>' + fmtBytes(c.bytes_in) + '</td><td>' + fmtBytes(c.bytes_out) + '</td></tr>';
  });
  document.getElementById('connections').innerHTML = rows;
}

function poll() {
  fetch('/api/stats').then(function (r) { return r.json(); }).then(render);
}

function resetStats() {
  fetch('/api/reset').then(poll);
}

try {
  var ws = new WebSocket((location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + '/ws');
  ws.binaryType = 'arraybuffer';
  ws.onmessage = function (ev) {
    render(JSON.parse(new TextDecoder().decode(ev.data)));
  };
  ws.onerror = function () { setInterval(poll, 2000); };
} catch (e) {
  setInterval(poll, 2000);
}
poll();
</script>
</body>
</html>
`
