package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE workflows (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				status VARCHAR(50) NOT NULL CHECK (status IN ('draft', 'active', 'inactive')),
				nodes JSONB NOT NULL DEFAULT '[]',
				connections JSONB NOT NULL DEFAULT '[]',
				variables JSONB,
				metadata JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_workflows_status ON workflows(status);
			CREATE INDEX idx_workflows_created_at ON workflows(created_at);
			CREATE INDEX idx_workflows_deleted_at ON workflows(deleted_at);

			CREATE TABLE stages (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				position INT NOT NULL DEFAULT 0,
				color VARCHAR(50)
			);

			CREATE INDEX idx_stages_position ON stages(position);

			CREATE TABLE customers (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				phone VARCHAR(100) NOT NULL,
				email VARCHAR(255) NOT NULL DEFAULT '',
				channel VARCHAR(50) NOT NULL CHECK (channel IN ('whatsapp', 'telegram')),
				stage_id VARCHAR(255),
				balance DOUBLE PRECISION NOT NULL DEFAULT 0,
				tags TEXT[],
				custom_fields JSONB NOT NULL DEFAULT '{}',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_customers_stage_id ON customers(stage_id);
			CREATE INDEX idx_customers_created_at ON customers(created_at);
			CREATE UNIQUE INDEX idx_customers_channel_phone ON customers(channel, phone);
			CREATE INDEX idx_customers_custom_fields ON customers USING GIN (custom_fields);

			CREATE TABLE prompts (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				system_prompt TEXT NOT NULL DEFAULT '',
				user_prompt TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE TABLE knowledge_entries (
				id VARCHAR(255) PRIMARY KEY,
				title VARCHAR(255) NOT NULL,
				content TEXT NOT NULL DEFAULT '',
				tags TEXT[]
			);

			CREATE TABLE media_assets (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				folder VARCHAR(255) NOT NULL DEFAULT '',
				mime_type VARCHAR(100) NOT NULL DEFAULT '',
				url TEXT NOT NULL DEFAULT ''
			);

			CREATE INDEX idx_media_assets_folder ON media_assets(folder);
		`,
	}
}
