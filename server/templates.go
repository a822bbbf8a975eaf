package server

import "html/template"

// 页面模板。沿用深色简洁样式，展示所需的最小标记。

var browseTmpl = template.Must(template.New("browse").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>FTP File Explorer</title>
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <style>
    body { font-family: Arial, Helvetica, sans-serif; margin: 0; padding: 10px; background-color: #112233; color: #e0e0e0; }
    .container { max-width: 1000px; margin: 0 auto; background: #1a2b3c; padding: 15px; border-radius: 5px; }
    h1 { color: #ffffff; margin-top: 0; font-size: 1.5rem; }
    .server-info { margin-bottom: 10px; font-size: 0.85rem; color: #b0b0b0; }
    .path-info { margin-bottom: 15px; padding: 8px; background-color: #1e3246; border-radius: 4px; word-break: break-all; }
    table { width: 100%; border-collapse: collapse; }
    th, td { padding: 8px; text-align: left; border-bottom: 1px solid #2a3a4a; }
    th { background-color: #1e3246; color: #ffffff; }
    tr:hover { background-color: #233548; }
    a { color: #77aaff; text-decoration: none; }
    a:hover { text-decoration: underline; color: #99ccff; }
    .folder-icon::before { content: "📁 "; }
    .file-icon::before { content: "📄 "; }
    .back-link { margin-bottom: 15px; display: inline-block; }
    td:nth-child(2) { text-align: center; width: 20%; }
    td:nth-child(3) { text-align: right; width: 30%; }
  </style>
</head>
<body>
  <div class="container">
    <h1>FTP File Explorer</h1>
    <div class="server-info">Host: {{.Host}}</div>
    <div class="path-info">Current location: {{.Path}}</div>
    {{if .ParentPath}}<a class="back-link" href="/?path={{.ParentPath}}">⬆️ Go to Top Index</a>{{end}}
    <table>
      <thead>
        <tr><th>Name</th><th>Size</th><th>History</th></tr>
      </thead>
      <tbody>
        {{range .Entries}}
        <tr>
          <td>
            {{if .IsDir}}
            <a class="folder-icon" href="/?path={{.Path}}">{{.Name}}</a>
            {{else}}
            <a class="file-icon" href="/file?path={{.Path}}">{{.Name}}</a>
            {{if .Playable}}<a href="/videosync?url={{.Path}}">Play</a>{{end}}
            {{end}}
          </td>
          <td>{{.SizeText}}</td>
          <td>{{.DateText}}</td>
        </tr>
        {{end}}
      </tbody>
    </table>
  </div>
</body>
</html>
`))

var videoSyncTmpl = template.Must(template.New("videosync").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>VideoSync</title>
  <style>
    body { font-family: Arial, Helvetica, sans-serif; margin: 0; padding: 10px; background-color: #112233; color: #e0e0e0; }
    .controls { margin: 0.5rem 0; display: flex; align-items: center; gap: 0.5rem; }
  </style>
</head>
<body>
  <form action="./videosync" class="controls">
    <label for="videoUrl">Video URL</label>
    <input name="url" type="text" id="videoUrl" placeholder="http://example.com/video.mp4" style="width: 75%">
    <button type="submit">Play</button>
  </form>
  <video id="video" style="width: 100%; max-height: 80vh" controls></video>
  <div class="controls">
    <label for="speedInput">Playback Speed</label>
    <input type="number" id="speedInput" value="1.25" step="0.05">
    <button onclick="sendData()">Sync</button>
  </div>
  <script>
    const wsProto = location.protocol === "https:" ? "wss://" : "ws://";
    const socket = new WebSocket(wsProto + location.host + "/ws");
    const video = document.getElementById("video");
    const videoUrl = document.getElementById("videoUrl");
    const speedInput = document.getElementById("speedInput");

    setTimeout(() => {
      let url = (new URLSearchParams(window.location.search).get("url") || "").trim() || {{.}};
      if (url) {
        if (url.indexOf("http") === -1) {
          url = location.protocol + "//" + location.host + "/file?path=" + encodeURIComponent(url);
        }
        videoUrl.value = url;
        video.src = url;
        sendData();
      }
    }, 100);

    socket.onmessage = (ev) => {
      const msg = JSON.parse(ev.data);
      const data = msg.data || {};
      if (msg.type === "sync") {
        if (data.url) video.src = data.url;
        if (data.time !== undefined) video.currentTime = data.time;
        if (data.speed !== undefined) video.playbackRate = data.speed;
        videoUrl.value = data.url || videoUrl.value;
        speedInput.value = data.speed;
      } else if (msg.type === "update") {
        if (data.url && video.src !== data.url) video.src = data.url;
        if (data.time !== undefined) video.currentTime = data.time;
        if (data.speed !== undefined) {
          video.playbackRate = data.speed;
          speedInput.value = data.speed;
        }
        if (data.url) videoUrl.value = data.url;
        if (data.paused !== undefined) {
          if (data.paused) { video.pause(); } else { video.play(); }
        }
      }
    };

    function sendData() {
      const data = {
        url: videoUrl.value,
        time: video.currentTime,
        speed: parseFloat(speedInput.value),
        paused: video.paused,
      };
      video.playbackRate = data.speed;
      socket.send(JSON.stringify({ type: "update", data: data, timestamp: Date.now() }));
    }
  </script>
</body>
</html>
`))

var errorTmpl = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; background-color: #112233; color: #e0e0e0; padding: 20px;">
  <h1>Error</h1>
  <p>{{.}}</p>
  <p><a style="color: #77aaff" href="/">Back to Home Page</a></p>
</body>
</html>
`))
