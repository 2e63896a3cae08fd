package errors

import "fmt"

// Configuration Errors

func ConfigNotFound(path string) *WebhookError {
	return NewWithDetails(ErrConfigNotFound, "Configuration file not found", fmt.Sprintf("Path: %s", path))
}

func ConfigParseError(cause error) *WebhookError {
	return Wrap(ErrConfigParse, "Failed to parse configuration", cause)
}

func ConfigValidationError(field, reason string) *WebhookError {
	return NewWithDetails(ErrConfigValidation, "Configuration validation failed",
		fmt.Sprintf("Field: %s, Reason: %s", field, reason))
}

// Container Errors

func ContainerExecFailed(id string, command []string, cause error) *WebhookError {
	return WrapWithDetails(ErrContainerExecFailed, "Failed to execute command in container",
		fmt.Sprintf("Container ID: %s, Command: %v", id, command), cause)
}

func ContainerInvalidID(id string) *WebhookError {
	return NewWithDetails(ErrContainerInvalidID, "Invalid container ID",
		fmt.Sprintf("%q is not a Pterodactyl server UUID", id))
}

func RuntimeUnavailable(cause error) *WebhookError {
	return Wrap(ErrRuntimeUnavailable, "Container runtime is not available", cause)
}

// Webhook Errors

func WebhookSignatureInvalid() *WebhookError {
	return New(ErrWebhookSignature, "Webhook signature verification failed")
}

func WebhookOriginRejected(ip string) *WebhookError {
	return NewWithDetails(ErrWebhookOrigin, "Webhook origin not in allow-list", fmt.Sprintf("IP: %s", ip))
}

func WebhookPayloadInvalid(cause error) *WebhookError {
	return Wrap(ErrWebhookPayload, "Failed to parse webhook payload", cause)
}

func QueueFull() *WebhookError {
	return New(ErrQueueFull, "Trigger queue is full")
}

// Database Errors

func DatabaseConnectionError(cause error) *WebhookError {
	return Wrap(ErrDatabaseConnection, "Failed to connect to database", cause)
}

func DatabaseQueryError(operation string, cause error) *WebhookError {
	return WrapWithDetails(ErrDatabaseQuery, "Database query failed",
		fmt.Sprintf("Operation: %s", operation), cause)
}

func DatabaseMigrationError(cause error) *WebhookError {
	return Wrap(ErrDatabaseMigration, "Failed to run database migrations", cause)
}
