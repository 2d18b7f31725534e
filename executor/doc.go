// Package executor runs a single model instance on a dedicated worker
// goroutine and serializes every inference request through a FIFO queue.
//
// The model is loaded on the worker when the executor starts and is only
// ever touched by that goroutine. Callers block in Submit until their task
// completes or their context is done:
//
//	ex, err := executor.Spawn(ctx, "whisper", whisper.Loader(cfg))
//	if err != nil {
//	    return err // MODEL_LOAD_FAILED
//	}
//	defer ex.Shutdown(ctx)
//
//	words, err := ex.Submit(ctx, transcription.Request{Audio: pcm})
//
// An Executor is both a provider.RequestResponse, so provider middleware can
// wrap it, and a component.Component, so a component.Registry can manage
// its lifecycle.
package executor
