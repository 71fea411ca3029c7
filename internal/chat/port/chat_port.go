// Package port — chat_port.go define a interface (port) para o gerador de
// texto (LLM) usado pelo extrator de palavras-chave e pelo compositor de
// respostas.
//
// Seguindo a arquitetura hexagonal, o ChatService depende dessa interface
// e NÃO do client concreto (OpenAI, Anthropic). Isso facilita testes e
// troca de provedor.
package port

import (
	"context"
)

// TextGenerator gera texto a partir de um prompt. Sem streaming.
// Um TextGenerator nil significa "LLM desabilitado": o serviço usa o
// modo determinístico.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
