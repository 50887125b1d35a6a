package bootstrap

import (
	"fmt"
	"strings"
)

// PackageStep updates the OS and installs the reverse proxy, language
// runtime, and (for node-local databases) the database engine
type PackageStep struct {
	Packages []string
}

func newPackageStep(cfg Config) PackageStep {
	pkgs := []string{"nginx", "python3", "python3-pip", "python3-venv"}
	if cfg.Shared == nil {
		pkgs = append(pkgs, "mysql-server")
	} else {
		// mysqlclient builds against the client library; the CLI runs
		// the schema step against the shared endpoint
		pkgs = append(pkgs, "mysql-client", "default-libmysqlclient-dev", "pkg-config")
	}
	return PackageStep{Packages: pkgs}
}

func (s PackageStep) Name() string { return "packages" }

func (s PackageStep) Render() string {
	return fmt.Sprintf(`export DEBIAN_FRONTEND=noninteractive
apt-get update
apt-get upgrade -y
apt-get install -y %s
`, strings.Join(s.Packages, " "))
}

// DatabaseStep initializes the node-local database: schema, a user scoped
// to local connections, the products table, and the seed rows
type DatabaseStep struct {
	Schema   string
	User     string
	Password string
	Seed     []Product
}

func newDatabaseStep(cfg Config) DatabaseStep {
	return DatabaseStep{
		Schema:   cfg.Schema,
		User:     cfg.User,
		Password: cfg.Password,
		Seed:     cfg.Seed,
	}
}

func (s DatabaseStep) Name() string { return "database" }

func (s DatabaseStep) Render() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("mysql -e \"CREATE DATABASE IF NOT EXISTS %s;\"\n", s.Schema))
	sb.WriteString(fmt.Sprintf("mysql -e \"CREATE USER IF NOT EXISTS '%s'@'localhost' IDENTIFIED BY '%s';\"\n", s.User, s.Password))
	// grant on the schema only, never global
	sb.WriteString(fmt.Sprintf("mysql -e \"GRANT ALL PRIVILEGES ON %s.* TO '%s'@'localhost';\"\n", s.Schema, s.User))
	sb.WriteString("mysql -e \"FLUSH PRIVILEGES;\"\n")
	sb.WriteString(fmt.Sprintf("mysql -e \"USE %s; CREATE TABLE IF NOT EXISTS products (id INT AUTO_INCREMENT PRIMARY KEY, name VARCHAR(255) NOT NULL, description TEXT, price DECIMAL(10,2) NOT NULL);\"\n", s.Schema))

	values := make([]string, 0, len(s.Seed))
	for _, p := range s.Seed {
		values = append(values, fmt.Sprintf("('%s', '%s', %s)", p.Name, p.Description, p.Price))
	}
	sb.WriteString(fmt.Sprintf("mysql -e \"USE %s; INSERT INTO products (name, description, price) VALUES %s;\"\n", s.Schema, strings.Join(values, ", ")))
	return sb.String()
}

// SchemaStep initializes the shared database over the network: the
// products table and the seed rows. Every node in the fleet runs it, so
// the DDL is IF NOT EXISTS and the seed is guarded on an empty table.
type SchemaStep struct {
	Schema   string
	User     string
	Password string
	Endpoint string
	Port     int
	Seed     []Product
}

func newSchemaStep(cfg Config) SchemaStep {
	return SchemaStep{
		Schema:   cfg.Schema,
		User:     cfg.User,
		Password: cfg.Password,
		Endpoint: cfg.Shared.Endpoint,
		Port:     cfg.Shared.Port,
		Seed:     cfg.Seed,
	}
}

func (s SchemaStep) Name() string { return "schema" }

func (s SchemaStep) Render() string {
	client := fmt.Sprintf("mysql -h %s -P %d -u %s -p'%s' %s", s.Endpoint, s.Port, s.User, s.Password, s.Schema)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s -e \"CREATE TABLE IF NOT EXISTS products (id INT AUTO_INCREMENT PRIMARY KEY, name VARCHAR(255) NOT NULL, description TEXT, price DECIMAL(10,2) NOT NULL);\"\n", client))

	rows := make([]string, 0, len(s.Seed))
	for _, p := range s.Seed {
		rows = append(rows, fmt.Sprintf("SELECT '%s', '%s', %s", p.Name, p.Description, p.Price))
	}
	sb.WriteString(fmt.Sprintf("%s -e \"INSERT INTO products (name, description, price) SELECT * FROM (%s) AS seed WHERE NOT EXISTS (SELECT 1 FROM products);\"\n", client, strings.Join(rows, " UNION ALL ")))
	return sb.String()
}

// AppStep installs the API process inside an isolated virtualenv and
// writes the application source
type AppStep struct {
	Dir   string
	Port  int
	DSN   string
	RunAs string
}

func newAppStep(cfg Config) AppStep {
	host := "localhost"
	if cfg.Shared != nil {
		host = fmt.Sprintf("%s:%d", cfg.Shared.Endpoint, cfg.Shared.Port)
	}
	return AppStep{
		Dir:   cfg.AppDir,
		Port:  cfg.AppPort,
		DSN:   fmt.Sprintf("mysql://%s:%s@%s/%s", cfg.User, cfg.Password, host, cfg.Schema),
		RunAs: cfg.RunAs,
	}
}

func (s AppStep) Name() string { return "app" }

func (s AppStep) Render() string {
	return fmt.Sprintf(`mkdir -p %[1]s
python3 -m venv %[1]s/venv
%[1]s/venv/bin/pip install flask flask_sqlalchemy mysqlclient gunicorn
cat > %[1]s/app.py << 'EOL'
from flask import Flask, jsonify
from flask_sqlalchemy import SQLAlchemy

app = Flask(__name__)
app.config["SQLALCHEMY_DATABASE_URI"] = "%[2]s"
db = SQLAlchemy(app)

class Product(db.Model):
    __tablename__ = "products"
    id = db.Column(db.Integer, primary_key=True)
    name = db.Column(db.String(255), nullable=False)
    description = db.Column(db.Text)
    price = db.Column(db.Float, nullable=False)

@app.route("/products", methods=["GET"])
def get_products():
    products = Product.query.all()
    return jsonify([{"id": p.id, "name": p.name, "description": p.description, "price": p.price} for p in products])

@app.route("/healthz", methods=["GET"])
def healthz():
    return "ok"

if __name__ == "__main__":
    app.run(host="0.0.0.0", port=%[3]d)
EOL
chown -R %[4]s:%[4]s %[1]s
`, s.Dir, s.DSN, s.Port, s.RunAs)
}

// ProxyStep points nginx at the API process and removes the default site
// so it cannot shadow the catalog routes
type ProxyStep struct {
	Site    string
	AppPort int
}

func newProxyStep(cfg Config) ProxyStep {
	return ProxyStep{Site: "catalog", AppPort: cfg.AppPort}
}

func (s ProxyStep) Name() string { return "proxy" }

func (s ProxyStep) Render() string {
	return fmt.Sprintf(`cat > /etc/nginx/sites-available/%[1]s << 'EOL'
server {
    listen 80;
    server_name _;

    location / {
        proxy_pass http://127.0.0.1:%[2]d;
        proxy_set_header Host $host;
        proxy_set_header X-Real-IP $remote_addr;
        proxy_set_header X-Forwarded-For $proxy_add_x_forwarded_for;
    }
}
EOL
ln -sf /etc/nginx/sites-available/%[1]s /etc/nginx/sites-enabled/
rm -f /etc/nginx/sites-enabled/default
nginx -t && systemctl reload nginx
`, s.Site, s.AppPort)
}

// ServiceStep registers the API as a supervised service that restarts on
// failure and starts on boot, under a non-privileged account
type ServiceStep struct {
	Unit    string
	Dir     string
	RunAs   string
	Workers int
	AppPort int
}

func newServiceStep(cfg Config) ServiceStep {
	return ServiceStep{
		Unit:    "catalog",
		Dir:     cfg.AppDir,
		RunAs:   cfg.RunAs,
		Workers: cfg.Workers,
		AppPort: cfg.AppPort,
	}
}

func (s ServiceStep) Name() string { return "service" }

func (s ServiceStep) Render() string {
	return fmt.Sprintf(`cat > /etc/systemd/system/%[1]s.service << EOL
[Unit]
Description=Catalog API Server
After=network.target mysql.service

[Service]
User=%[2]s
WorkingDirectory=%[3]s
ExecStart=%[3]s/venv/bin/gunicorn --workers %[4]d --bind 0.0.0.0:%[5]d app:app
Restart=always
RestartSec=2

[Install]
WantedBy=multi-user.target
EOL
systemctl daemon-reload
systemctl enable --now %[1]s
`, s.Unit, s.RunAs, s.Dir, s.Workers, s.AppPort)
}
