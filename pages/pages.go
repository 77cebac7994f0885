package pages

var Landing = `
<!DOCTYPE html>
<html>
<head>
    <title>Tunely API</title>
    <style>
        body {
            font-family: Arial, sans-serif;
            line-height: 1.6;
            max-width: 800px;
            margin: 0 auto;
            padding: 20px;
        }
        code {
            background: #f4f4f4;
            padding: 2px 6px;
            border-radius: 3px;
        }
    </style>
</head>
<body>
    <h1>Tunely API</h1>
    <p>Backend for the Tunely web music player.</p>
    <ul>
        <li><code>GET /api/health</code></li>
        <li><code>GET /api/ytmusic/search?q=...</code></li>
        <li><code>GET /api/ytmusic/audio-url/:videoId</code></li>
    </ul>
</body>
</html>`
