package database

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS admin_users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'staff',
		active INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		slug TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		base_price_cents INTEGER NOT NULL DEFAULT 0,
		active INTEGER NOT NULL DEFAULT 1,
		options TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		order_number TEXT NOT NULL UNIQUE,
		school_name TEXT NOT NULL DEFAULT '',
		contact_name TEXT NOT NULL DEFAULT '',
		contact_email TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		subtotal_cents INTEGER NOT NULL DEFAULT 0,
		total_cents INTEGER NOT NULL DEFAULT 0,
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id TEXT NOT NULL REFERENCES products(id),
		product_name TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		unit_price_cents INTEGER NOT NULL,
		selected_options TEXT NOT NULL DEFAULT '[]'
	)`,
	`CREATE TABLE IF NOT EXISTS order_communications (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		admin_id TEXT REFERENCES admin_users(id),
		direction TEXT NOT NULL,
		sender_email TEXT NOT NULL DEFAULT '',
		recipient_email TEXT NOT NULL DEFAULT '',
		subject TEXT NOT NULL DEFAULT '',
		body TEXT NOT NULL DEFAULT '',
		reply_to_token TEXT NOT NULL,
		message_id TEXT NOT NULL DEFAULT '',
		read_by_admin INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_order_communications_token
		ON order_communications(reply_to_token, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_order_communications_order
		ON order_communications(order_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS communication_attachments (
		id TEXT PRIMARY KEY,
		communication_id TEXT NOT NULL REFERENCES order_communications(id) ON DELETE CASCADE,
		filename TEXT NOT NULL,
		storage_path TEXT NOT NULL,
		mime_type TEXT NOT NULL DEFAULT 'application/octet-stream',
		size_bytes INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS proofs (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		version INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'draft',
		filename TEXT NOT NULL,
		storage_path TEXT NOT NULL,
		mime_type TEXT NOT NULL DEFAULT 'application/pdf',
		size_bytes INTEGER NOT NULL DEFAULT 0,
		sent_at TIMESTAMP,
		resolved_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		UNIQUE(order_id, version)
	)`,
	`CREATE TABLE IF NOT EXISTS proof_annotations (
		id TEXT PRIMARY KEY,
		proof_id TEXT NOT NULL REFERENCES proofs(id) ON DELETE CASCADE,
		author TEXT NOT NULL DEFAULT '',
		x REAL NOT NULL DEFAULT 0,
		y REAL NOT NULL DEFAULT 0,
		note TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
}
