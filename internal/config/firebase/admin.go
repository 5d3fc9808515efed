package firebase

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/storage"
	"google.golang.org/api/option"
)

var (
	app           *firebase.App
	storageClient *storage.Client
)

// InitializeFirebase initializes the Firebase Admin SDK. Credentials come
// from the service account file; the storage bucket is the project default.
func InitializeFirebase(ctx context.Context, credentialsFile, storageBucket string) error {
	conf := &firebase.Config{}
	if storageBucket != "" {
		conf.StorageBucket = storageBucket
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	var err error
	app, err = firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	storageClient, err = app.Storage(ctx)
	if err != nil {
		return fmt.Errorf("failed to get Firebase Storage client: %w", err)
	}

	return nil
}

// GetApp returns the Firebase app instance, or nil before initialization
func GetApp() *firebase.App {
	return app
}

// GetStorageClient returns the Firebase Storage client
func GetStorageClient() *storage.Client {
	return storageClient
}
