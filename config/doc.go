// Package config loads configuration structs from a YAML file, a .env file
// and the environment.
//
//	var cfg client.Config
//	err := config.LoadConfig("gs2", &cfg, config.WithEnvPrefix("GS2"))
//
// Sources are applied in order, later ones winning: the YAML file, then
// variables from the .env file, then the process environment. With a prefix,
// only prefixed variables are read and the prefix is stripped, so GS2_REGION
// sets "region" and GS2_TLS_CA_FILE sets "tls.ca_file".
//
// Files are searched for in standard locations unless given explicitly:
//
//	./<service>.yml, ./config/<service>.yml, ../config/<service>.yml,
//	./config/config.yml, ./config.yml
//	.env.<service> and .env in ., .., ./config
package config
