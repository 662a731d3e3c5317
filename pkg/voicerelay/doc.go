// ABOUTME: Package doc for the high-level voice relay client
// ABOUTME: Describes the public entry point for embedding the relay
/*
Package voicerelay provides a high-level client for talking to a
conversational agent server.

The client connects over WebSocket, plays the agent's streamed speech in
arrival order, and forwards captured microphone audio back for
transcription:

	client, err := voicerelay.New(voicerelay.Config{
		ServerURL: "ws://localhost:5000/converse",
	})
	if err != nil {
		log.Fatal(err)
	}
	if err := client.Connect(); err != nil {
		log.Fatal(err)
	}
	defer client.Close()
*/
package voicerelay
