package eventxredis

import "github.com/Abraxas-365/portal/pkg/errx"

var redisErrors = errx.NewRegistry("EVENTX_REDIS")

var (
	ErrPublish   = redisErrors.Register("PUBLISH", errx.TypeInternal, "Redis publish failed")
	ErrDequeue   = redisErrors.Register("DEQUEUE", errx.TypeInternal, "Redis dequeue failed")
	ErrGet       = redisErrors.Register("GET", errx.TypeInternal, "Redis get delivery failed")
	ErrAck       = redisErrors.Register("ACK", errx.TypeInternal, "Redis ack failed")
	ErrNack      = redisErrors.Register("NACK", errx.TypeInternal, "Redis nack failed")
	ErrRequeue   = redisErrors.Register("REQUEUE", errx.TypeInternal, "Redis requeue failed")
	ErrPromote   = redisErrors.Register("PROMOTE", errx.TypeInternal, "Redis promote failed")
	ErrRecover   = redisErrors.Register("RECOVER", errx.TypeInternal, "Redis recover failed")
	ErrNotFound  = redisErrors.Register("NOT_FOUND", errx.TypeNotFound, "Delivery not found in Redis")
	ErrMarshal   = redisErrors.Register("MARSHAL", errx.TypeInternal, "Failed to marshal delivery")
	ErrUnmarshal = redisErrors.Register("UNMARSHAL", errx.TypeInternal, "Failed to unmarshal delivery")
)
