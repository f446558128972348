package nginx

// Server-block templates. {{ envRef ... }} emits a ${VAR} placeholder that
// stays literal in the generated file, so one artifact works across
// environments that differ only in base domain. nginx runtime variables use
// the bare $name form and are untouched.

const defaultTemplate = `server {
    listen 80;
    server_name {{ envRef .EnvName }};
    return 301 https://$host$request_uri;
}

server {
    listen 443 ssl;
    server_name {{ envRef .EnvName }};
    include /etc/nginx/conf.d/ssl.inc;

    location / {
        proxy_pass http://{{ .Key }}:{{ .Port }};
        proxy_set_header Host $host;
        proxy_set_header X-Real-IP $remote_addr;
        proxy_set_header X-Forwarded-For $proxy_add_x_forwarded_for;
        proxy_set_header X-Forwarded-Proto $scheme;
    }
}
`

const customTemplate = `server {
    listen 80;
    server_name {{ envRef .EnvName }};
    return 301 https://$host$request_uri;
}

server {
    listen 443 ssl;
    server_name {{ envRef .EnvName }};
    include /etc/nginx/conf.d/ssl.inc;

{{ .Fragment | indent 4 }}
}
`

const topLevelTemplate = `{{- range .Includes }}
include /etc/nginx/conf.d/services/{{ . }};
{{- end }}
`
