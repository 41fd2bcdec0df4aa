package wordspark

const pageTemplates = `
{{define "head"}}<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>WordSpark</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
form.login { display: grid; gap: .5rem; max-width: 20rem; }
ul.lists { list-style: none; padding: 0; }
ul.lists li { display: flex; gap: 1rem; align-items: center; margin: .5rem 0; }
</style>
</head>
<body>
<main>{{end}}

{{define "foot"}}</main>
</body>
</html>{{end}}

{{define "login"}}{{template "head"}}
<h1 id="brand"{{if .DelayMs}} style="display:none"{{end}}>WordSpark</h1>
{{if .Error}}<p role="alert">{{.Error}}</p>{{end}}
<form class="login" method="post" action="/login">
<label for="email">Email</label>
<input id="email" name="email" type="email" autocomplete="username">
<label for="password">Password</label>
<input id="password" name="password" type="password" autocomplete="current-password">
<button type="submit">Sign In</button>
</form>
{{if .DelayMs}}<script>setTimeout(function () { document.getElementById('brand').style.display = ''; }, {{.DelayMs}});</script>{{end}}
{{template "foot"}}{{end}}

{{define "dashboard"}}{{template "head"}}
<h1>Dashboard</h1>
{{if .ShowHeading}}<h2>Vocabulary Lists</h2>{{end}}
<ul class="lists">
{{range .Lists}}<li>
<span>{{.Name}}</span>
<form method="get" action="/story/{{.ID}}"><button type="submit">Play Story</button></form>
</li>
{{end}}</ul>
{{template "foot"}}{{end}}

{{define "story"}}{{template "head"}}
<h1>Story: {{.Title}}</h1>
<p>{{.Story}}</p>
<a href="/">Back to lists</a>
{{template "foot"}}{{end}}
`
