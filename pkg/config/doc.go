// Package config loads vfsjob settings from YAML, JSON or HCL files.
//
//	+-----------+           +---------+           +----------------+
//	|  .yaml    |           |         |           |  job.Options   |
//	|  .json    |---------->| Config  |---------->|  job.Policy    |
//	|  .hcl     |  Parser   |         | Validate  |  archive.Format|
//	+-----------+           +---------+           +----------------+
//
// 🎯 Purpose:
// - Picks a parser by file extension through the parser registry
// - Fills defaults and rejects bad values in Validate
// - Turns remote short names into rclone locations
//
// 🔍 Example (YAML):
//
//	engine:
//	  max_concurrent: 4
//	  chunk_size_kib: 128
//	collision: rename
//	temp_dir: /var/tmp
//	archive:
//	  format: tar.gz
//	exclude: ["**/*.tmp", ".git"]
//	remotes:
//	  backup: "s3:bucket/backups"
//	log:
//	  level: debug
//
// The same settings in HCL:
//
//	engine {
//	  max_concurrent = 4
//	}
//	collision = "rename"
//	temp_dir  = "${env.HOME}/tmp"
//	remotes = {
//	  backup = "s3:bucket/backups"
//	}
package config
