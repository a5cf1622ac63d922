package gql

import (
	"html/template"
	"net/http"
)

var playgroundTemplate = template.Must(template.New("playground").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="user-scalable=no, initial-scale=1.0, minimum-scale=1.0, maximum-scale=1.0, minimal-ui" />
  <title>GraphQL Playground</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/graphql-playground-react/build/static/css/index.css" />
  <link rel="shortcut icon" href="https://cdn.jsdelivr.net/npm/graphql-playground-react/build/favicon.png" />
  <script src="https://cdn.jsdelivr.net/npm/graphql-playground-react/build/static/js/middleware.js"></script>
</head>
<body>
  <div id="root"></div>
  <script>
    window.addEventListener('load', function () {
      GraphQLPlayground.init(document.getElementById('root'), { endpoint: {{.}} })
    })
  </script>
</body>
</html>
`))

func servePlayground(w http.ResponseWriter, endpoint string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := playgroundTemplate.Execute(w, endpoint); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
