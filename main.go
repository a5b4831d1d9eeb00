package main

import (
	"fieldsync/core/logger"
	"fieldsync/core/server"

	_ "fieldsync/docs" // Swagger docs
)

// @title FieldSync API
// @version 1.0
// @description Đồng bộ lịch hẹn hai chiều giữa hệ thống điều phối đội thợ và lịch CRM

// @contact.name API Support
// @contact.email support@fieldsync.dev

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:7070
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token. Example: "Bearer {token}"

func main() {
	if err := server.Run(); err != nil {
		logger.Error("run server error", err)
	}
}
