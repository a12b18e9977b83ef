// Package provision reconciles the AWS resources behind a bucket-scoped
// service credential: the S3 bucket itself, an IAM policy granting access
// to it, an IAM user, and an access key for that user.
//
// Every resource except the access key is handled "confirm or create":
// an existing bucket, policy, or user is reused as-is and never mutated.
// Access keys are the exception: each run mints a new key, so repeated
// runs accumulate keys on the user until someone prunes them.
//
// The pipeline is strictly sequential and fail-fast: identity check,
// bucket, policy, user, attachment, key. A failed stage stops the run;
// nothing already created is rolled back.
package provision
