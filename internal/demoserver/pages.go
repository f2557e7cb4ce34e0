package demoserver

const indexHTML = `<!DOCTYPE html>
<html>
<head><title>pagefetch fixtures</title></head>
<body>
<h1>pagefetch fixtures</h1>
<ul>
  <li><a href="/static">/static</a> plain markup</li>
  <li><a href="/rendered">/rendered</a> content inserted by script</li>
  <li><a href="/flaky/3">/flaky/{n}</a> 503 n times, then 200</li>
  <li><a href="/status/404">/status/{code}</a> any status</li>
  <li><a href="/stall">/stall</a> never finishes loading</li>
  <li><a href="/charset">/charset</a> ISO-8859-1 page</li>
  <li><a href="/echo-headers">/echo-headers</a> request headers</li>
  <li><a href="/redirect">/redirect</a> 302 to /static</li>
</ul>
</body>
</html>`

const staticHTML = `<!DOCTYPE html>
<html>
<head><title>Static page</title></head>
<body>
<h1>Static</h1>
<p id="content">served as-is</p>
</body>
</html>`

// The visible strings are assembled at runtime so they never appear in the
// raw response; only a script-executing fetch can see them.
const renderedHTML = `<!DOCTYPE html>
<html>
<head><title>Rendered page</title></head>
<body>
<div id="app"></div>
<script>
  var p = document.createElement("p");
  p.id = "rendered";
  p.textContent = ["rendered", "by", "script"].join(" ");
  document.getElementById("app").appendChild(p);
  setTimeout(function () {
    var late = document.createElement("p");
    late.id = "late";
    late.textContent = ["arrived", "late"].join(" ");
    document.getElementById("app").appendChild(late);
  }, {{.DelayMS}});
</script>
</body>
</html>`

const echoHTML = `<!DOCTYPE html>
<html>
<head><title>Headers</title></head>
<body>
<ul id="headers">
{{range .}}  <li data-name="{{.Name}}">{{.Name}}: {{.Value}}</li>
{{end}}</ul>
</body>
</html>`
